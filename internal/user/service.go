package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/permission"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
}

type Service struct {
	repo     Repository
	resolver permission.Resolver
	logger   *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: permission.NewResolver(),
		logger:   logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to get user", "user_id", userID, "error", err)
		return nil, err
	}
	return u, nil
}

// LoadActor returns the permission view of an active user.
func (s *Service) LoadActor(ctx context.Context, userID int64) (*permission.Actor, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActiveUser() {
		return nil, internal.ErrUserInactive
	}
	return u.Actor(), nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &ProfileResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Name:                u.Name,
		IsSystemAdmin:       u.IsSystemAdmin,
		AdminOrganizationID: u.AdminOrganizationID,
		Capabilities:        s.resolver.ResolveAll(u.Actor()),
	}
	if u.Role != nil {
		resp.Role = string(u.Role.Kind)
	}
	return resp, nil
}
