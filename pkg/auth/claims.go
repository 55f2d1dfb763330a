package auth

import (
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// InvitePurpose marks invite tokens. Access token parsing rejects any token
// that carries a purpose.
const InvitePurpose = "invite"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.UserRole
	// JTI doubles as the refresh session key; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	// Purpose is only set on special purpose tokens such as invites.
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// InviteClaims authorizes a single sign-up with the given role.
type InviteClaims struct {
	Purpose   string         `json:"purpose"`
	Role      enums.UserRole `json:"role"`
	InvitedBy uuid.UUID      `json:"invited_by"`
	jwt.RegisteredClaims
}
