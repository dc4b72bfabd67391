package postgres

import (
	"context"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/project"
	"github.com/jmoiron/sqlx"
)

const taskStatsQuery = `
SELECT
	COUNT(*) AS total,
	COALESCE(SUM(CASE WHEN stage = 'DONE' THEN 1 ELSE 0 END), 0) AS done,
	COALESCE(SUM(CASE WHEN stage = 'IN_PROGRESS' THEN 1 ELSE 0 END), 0) AS in_progress,
	COALESCE(SUM(CASE WHEN stage = 'HAVING_ISSUES' THEN 1 ELSE 0 END), 0) AS having_issues,
	COALESCE(SUM(story_points), 0) AS total_story_points,
	COALESCE(SUM(CASE WHEN stage = 'DONE' THEN story_points ELSE 0 END), 0) AS done_story_points
FROM task_instances
WHERE project_id = ? AND is_closed = ?`

const categoryProgressQuery = `
SELECT
	pc.id,
	pc.name,
	pc.weight,
	COUNT(t.id) AS total,
	COALESCE(SUM(CASE WHEN t.stage = 'DONE' THEN 1 ELSE 0 END), 0) AS done
FROM project_categories pc
LEFT JOIN task_instances t ON t.project_category_id = pc.id AND t.is_closed = ?
WHERE pc.project_id = ?
GROUP BY pc.id, pc.name, pc.weight, pc.position
ORDER BY pc.position ASC, pc.id ASC`

// StatsRepository runs the reporting aggregates as plain SQL.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository expects db to be opened with the driver name sqlx uses to
// pick the bind style ("pgx" or "sqlite3").
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) TaskStats(ctx context.Context, projectID int64) (project.TaskStats, error) {
	var stats project.TaskStats
	if err := r.db.GetContext(ctx, &stats, r.db.Rebind(taskStatsQuery), projectID, false); err != nil {
		return project.TaskStats{}, internal.NewStorageUnavailableError(err)
	}
	return stats, nil
}

func (r *StatsRepository) CategoryProgress(ctx context.Context, projectID int64) ([]project.CategoryProgress, error) {
	categories := []project.CategoryProgress{}
	if err := r.db.SelectContext(ctx, &categories, r.db.Rebind(categoryProgressQuery), false, projectID); err != nil {
		return nil, internal.NewStorageUnavailableError(err)
	}
	return categories, nil
}
