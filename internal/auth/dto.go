package auth

import (
	"time"

	"github.com/angelmondragon/sitestock-backend/internal/users"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Remember bool   `json:"remember"`
}

// JoinRequest signs up through an invite link.
type JoinRequest struct {
	Token    string `json:"token" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Remember bool   `json:"remember"`
}

// RefreshRequest carries the refresh token issued at login.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginResponse contains the tokens and the user produced by a successful login.
type LoginResponse struct {
	AccessToken     string         `json:"access_token"`
	RefreshToken    string         `json:"refresh_token"`
	AccessExpiresAt time.Time      `json:"access_expires_at"`
	SessionTTL      time.Duration  `json:"-"`
	User            *users.UserDTO `json:"user"`
}

// InviteRequest asks for an invite link granting role.
type InviteRequest struct {
	Role enums.UserRole `json:"role"`
}

// InviteResponse is a signed invite and the link to share.
type InviteResponse struct {
	Token     string         `json:"token"`
	Link      string         `json:"link"`
	Role      enums.UserRole `json:"role"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin USER ADMIN"`
}
