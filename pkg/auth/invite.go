package auth

import (
	"fmt"
	"time"

	"github.com/angelmondragon/sitestock-backend/pkg/config"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MintInviteToken signs an expiring invitation to join with role.
func MintInviteToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, role enums.UserRole, invitedBy uuid.UUID) (string, time.Time, error) {
	if err := validateSigningConfig(cfg); err != nil {
		return "", time.Time{}, err
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("invite ttl must be positive")
	}
	if !role.IsValid() {
		return "", time.Time{}, fmt.Errorf("invalid user role %q", role)
	}

	expiresAt := now.Add(ttl)
	claims := InviteClaims{
		Purpose:   InvitePurpose,
		Role:      role,
		InvitedBy: invitedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token, err := sign(cfg, claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseInviteToken validates signature, issuer, expiry and purpose.
func ParseInviteToken(cfg config.JWTConfig, tokenString string) (*InviteClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	claims := &InviteClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if _, err := parser.ParseWithClaims(tokenString, claims, keyFunc(cfg)); err != nil {
		return nil, err
	}
	if claims.Purpose != InvitePurpose {
		return nil, fmt.Errorf("token is not an invite")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid user role %q", claims.Role)
	}
	return claims, nil
}
