package project

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/permission"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*Project, error)
	// HasAccess reports whether the user is a member, commenter or viewer.
	HasAccess(ctx context.Context, projectID, userID int64) (bool, error)
}

type StatsRepositoryAPI interface {
	TaskStats(ctx context.Context, projectID int64) (TaskStats, error)
	CategoryProgress(ctx context.Context, projectID int64) ([]CategoryProgress, error)
}

type ActorLoader interface {
	LoadActor(ctx context.Context, userID int64) (*permission.Actor, error)
}

type Service struct {
	repo     RepositoryAPI
	stats    StatsRepositoryAPI
	actors   ActorLoader
	resolver permission.Resolver
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, stats StatsRepositoryAPI, actors ActorLoader, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		stats:    stats,
		actors:   actors,
		resolver: permission.NewResolver(),
		logger:   logger,
	}
}

// CheckAccess passes system administrators, administrators of the owning
// organization and anyone holding member, commenter or viewer access.
func (s *Service) CheckAccess(ctx context.Context, actor *permission.Actor, projectID int64) error {
	_, err := s.authorize(ctx, actor, projectID)
	return err
}

func (s *Service) authorize(ctx context.Context, actor *permission.Actor, projectID int64) (*Project, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if actor.IsSystemAdministrator() {
		return p, nil
	}
	if p.OrganizationID != nil && s.resolver.IsOrgAdmin(actor, *p.OrganizationID) {
		return p, nil
	}

	ok, err := s.repo.HasAccess(ctx, projectID, actor.UserID)
	if err != nil {
		s.logger.Error("failed to check project access", "project_id", projectID, "user_id", actor.UserID, "error", err)
		return nil, err
	}
	if !ok {
		return nil, internal.ErrForbiddenProjectAccess
	}
	return p, nil
}

func (s *Service) Stats(ctx context.Context, actorID, projectID int64) (*StatsResponse, error) {
	actor, err := s.actors.LoadActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	p, err := s.authorize(ctx, actor, projectID)
	if err != nil {
		s.logger.Warn("project stats denied", "project_id", projectID, "user_id", actorID, "error", err)
		return nil, err
	}

	tasks, err := s.stats.TaskStats(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to compute task stats", "project_id", projectID, "error", err)
		return nil, err
	}

	categories, err := s.stats.CategoryProgress(ctx, projectID)
	if err != nil {
		s.logger.Error("failed to compute category progress", "project_id", projectID, "error", err)
		return nil, err
	}

	resp := &StatsResponse{
		ProjectID:            p.ID,
		Name:                 p.Name,
		Tasks:                tasks,
		RemainingStoryPoints: tasks.RemainingStoryPoints(),
		Progress:             Progress(categories, tasks),
		Categories:           make([]CategoryProgressResponse, 0, len(categories)),
	}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, CategoryProgressResponse{CategoryProgress: c, Completion: c.Completion()})
	}

	s.logger.Info("computed project stats", "project_id", projectID, "progress", resp.Progress)
	return resp, nil
}
