package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/project-management/internal"
	auditPostgres "github.com/frahmantamala/project-management/internal/audit/postgres"
	taskDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/task"
	"github.com/frahmantamala/project-management/internal/task"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository binds to db, which may be a transaction handle.
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Load(ctx context.Context, id int64) (*task.Task, error) {
	var model taskDatamodel.TaskInstance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrTaskNotFound
		}
		return nil, internal.NewStorageUnavailableError(err)
	}

	assignees, err := r.assigneesOf(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	return task.FromDataModel(&model, assignees[id]), nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	return r.Load(ctx, id)
}

// SaveWithLock writes the lifecycle fields only when the row still carries
// t.Version. Identity fields are never rewritten here.
func (r *TaskRepository) SaveWithLock(ctx context.Context, t *task.Task) error {
	model := task.ToDataModel(t)
	res := r.db.WithContext(ctx).
		Model(&taskDatamodel.TaskInstance{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]interface{}{
			"category":      model.Category,
			"stage":         model.Stage,
			"points_earned": model.PointsEarned,
			"start_date":    model.StartDate,
			"end_date":      model.EndDate,
			"is_closed":     model.IsClosed,
			"version":       gorm.Expr("version + 1"),
			"updated_at":    model.UpdatedAt,
		})
	if res.Error != nil {
		return internal.NewStorageUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrStorageConflict
	}

	t.Version++
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	model := task.ToDataModel(t)
	model.ID = 0
	model.Version = 1

	db := r.db.WithContext(ctx)
	if err := db.Create(model).Error; err != nil {
		return internal.NewStorageUnavailableError(err)
	}

	if len(t.Assignees) > 0 {
		rows := make([]taskDatamodel.TaskAssignee, len(t.Assignees))
		for i, userID := range t.Assignees {
			rows[i] = taskDatamodel.TaskAssignee{TaskID: model.ID, UserID: userID, Position: i}
		}
		if err := db.Create(&rows).Error; err != nil {
			return internal.NewStorageUnavailableError(err)
		}
	}

	t.ID = model.ID
	t.Version = model.Version
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *TaskRepository) ListOpenByProject(ctx context.Context, projectID int64, category task.Category) ([]*task.Task, error) {
	var models []taskDatamodel.TaskInstance
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND category = ? AND is_closed = ?", projectID, string(category), false).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, internal.NewStorageUnavailableError(err)
	}

	ids := make([]int64, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	assignees, err := r.assigneesOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, len(models))
	for i := range models {
		tasks[i] = task.FromDataModel(&models[i], assignees[models[i].ID])
	}
	return tasks, nil
}

func (r *TaskRepository) assigneesOf(ctx context.Context, taskIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}

	var rows []taskDatamodel.TaskAssignee
	err := r.db.WithContext(ctx).
		Where("task_id IN ?", taskIDs).
		Order("task_id ASC").
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, internal.NewStorageUnavailableError(err)
	}

	for _, row := range rows {
		out[row.TaskID] = append(out[row.TaskID], row.UserID)
	}
	return out, nil
}

// UnitOfWork runs the lifecycle engine inside a single gorm transaction.
type UnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(store task.Store, sink task.AuditSink) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewTaskRepository(tx), auditPostgres.NewAuditRepository(tx))
	})
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewStorageUnavailableError(err)
}
