package auth

import (
	"context"
	"errors"

	"github.com/angelmondragon/sitestock-backend/internal/users"
	pkgAuth "github.com/angelmondragon/sitestock-backend/pkg/auth"
	"github.com/angelmondragon/sitestock-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sitestock-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateInvite signs an invite for role. Only admins may invite.
func (s *service) CreateInvite(ctx context.Context, actorID uuid.UUID, role enums.UserRole) (*InviteResponse, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if role == "" {
		role = enums.UserRoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.Fields(map[string]string{"role": "role must be user or admin"})
	}

	token, expiresAt, err := pkgAuth.MintInviteToken(s.jwtCfg, s.clock().UTC(), s.inviteTTL, role, actorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint invite")
	}
	return &InviteResponse{
		Token:     token,
		Link:      s.joinLink(token),
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *service) ListUsers(ctx context.Context) ([]users.UserDTO, error) {
	rows, err := s.users.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *users.FromModel(&rows[i]))
	}
	return out, nil
}

// UpdateUserRole changes a role. Admins cannot demote themselves, which keeps
// at least the acting admin in place.
func (s *service) UpdateUserRole(ctx context.Context, actorID, userID uuid.UUID, role enums.UserRole) (*users.UserDTO, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, pkgerrors.Fields(map[string]string{"role": "role must be user or admin"})
	}
	if actorID == userID && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "admins cannot demote themselves")
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return users.FromModel(user), nil
}

func (s *service) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load actor")
	}
	if actor.Role != enums.UserRoleAdmin || !actor.IsActive {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}
