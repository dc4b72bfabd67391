package audit

import (
	"context"
	"log/slog"
)

const defaultHistoryLimit = 100

// Repository is append-only.
type Repository interface {
	Record(ctx context.Context, rec *Record) error
	ListByTarget(ctx context.Context, targetType string, targetID int64, limit int) ([]*Record, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// TaskHistory returns audit records of a task, newest first.
func (s *Service) TaskHistory(ctx context.Context, taskID int64, limit int) ([]*Record, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryLimit
	}

	records, err := s.repo.ListByTarget(ctx, TargetTask, taskID, limit)
	if err != nil {
		s.logger.Error("failed to list task audit history", "error", err, "task_id", taskID)
		return nil, err
	}

	return records, nil
}
