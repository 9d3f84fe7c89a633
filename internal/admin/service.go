package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/logging"
	"github.com/spielrunde/cardtable/internal/user"
)

var ErrCannotBanAdmin = errors.New("administrators cannot be banned")

// UserStore is the user persistence the admin service depends on
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role user.Role) error
}

// SessionRevoker revokes sessions when a user loses access
type SessionRevoker interface {
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// Service implements the admin user management operations
type Service struct {
	users    UserStore
	sessions SessionRevoker
	logger   *logging.Logger
}

func NewService(users UserStore, sessions SessionRevoker, logger *logging.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// ListUsers returns a page of users, optionally filtered by role
func (s *Service) ListUsers(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	return s.users.List(ctx, filter)
}

// UpdateRole sets a user's role to any valid value
func (s *Service) UpdateRole(ctx context.Context, userID uuid.UUID, role user.Role) (*user.User, error) {
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return nil, err
	}

	// Losing admin or becoming banned must not leave live sessions with
	// stale privileges; the middleware re-reads the role anyway, but banned
	// sessions are swept eagerly
	if role.IsBanned() {
		if err := s.sessions.RevokeAllUserSessions(ctx, userID); err != nil {
			s.logger.Error("failed to revoke sessions after role change", "user_id", userID, "error", err.Error())
		}
	}

	return s.users.GetByID(ctx, userID)
}

// Ban sets a user's role to banned and revokes all their sessions.
// Admins cannot be banned.
func (s *Service) Ban(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if target.IsAdmin() {
		return nil, ErrCannotBanAdmin
	}

	if err := s.users.UpdateRole(ctx, userID, user.RoleBanned); err != nil {
		return nil, fmt.Errorf("failed to ban user: %w", err)
	}

	if err := s.sessions.RevokeAllUserSessions(ctx, userID); err != nil {
		s.logger.Error("failed to revoke sessions of banned user", "user_id", userID, "error", err.Error())
	}

	s.logger.Info("user banned", "user_id", userID)

	return s.users.GetByID(ctx, userID)
}

// Unban resets a user's role to player regardless of their previous role
func (s *Service) Unban(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, userID, user.RolePlayer); err != nil {
		return nil, fmt.Errorf("failed to unban user: %w", err)
	}

	s.logger.Info("user unbanned", "user_id", userID)

	return s.users.GetByID(ctx, userID)
}
