package task

import (
	"context"
	"slices"
	"strings"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/permission"
)

// CreateTask creates a task directly in a project and records TASK_CREATED in
// the same transaction.
func (s *Service) CreateTask(ctx context.Context, actorID, projectID int64, dto CreateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("task validation failed", "error", err, "actor_id", actorID)
		return nil, err
	}

	actor, err := s.actors.LoadActor(ctx, actorID)
	if err != nil {
		s.logFailure("failed to load acting user", err, "user_id", actorID)
		return nil, err
	}
	if !s.resolver.Resolve(actor, permission.ManageTasks) {
		s.logger.Warn("create task denied: missing manage_tasks", "actor_id", actorID, "project_id", projectID)
		return nil, internal.ErrForbiddenManageTasks
	}
	if err := s.checkProject(ctx, actor, projectID); err != nil {
		return nil, err
	}

	category := CategoryDevelopment
	if dto.Category != "" {
		category = Category(dto.Category)
	}
	stage := StageTodo
	if dto.Stage != "" {
		stage = Stage(dto.Stage)
	}
	if stage == StageReject {
		return nil, internal.ErrRejectOutsideTesting
	}

	now := s.clock.Now()
	createdBy := actorID
	pid := projectID
	t := &Task{
		Title:             strings.TrimSpace(dto.Title),
		Description:       dto.Description,
		ProjectID:         &pid,
		ProjectCategoryID: dto.ProjectCategoryID,
		CoordinatorID:     dto.CoordinatorID,
		CreatedByID:       &createdBy,
		Category:          category,
		Stage:             stage,
		StoryPoints:       dto.StoryPoints,
		Deadline:          dto.ParsedDeadline(),
		Assignees:         uniqueIDs(dto.Assignees),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.uow.Do(ctx, func(store Store, sink AuditSink) error {
		if err := store.Create(ctx, t); err != nil {
			return err
		}
		detail := "Task '" + t.Title + "' created in " + t.Category.Label() + "."
		return sink.Record(ctx, s.newRecord(actor, audit.ActionTaskCreated, t.ID, detail, t.ProjectID, now))
	})
	if err != nil {
		s.logFailure("failed to create task", err, "actor_id", actorID, "project_id", projectID)
		return nil, err
	}

	s.logger.Info("task created successfully",
		"task_id", t.ID,
		"project_id", projectID,
		"actor_id", actorID,
		"category", t.Category)

	return t, nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (*Task, error) {
	t, err := s.reader.GetByID(ctx, id)
	if err != nil {
		s.logFailure("failed to get task", err, "task_id", id)
		return nil, err
	}
	return t, nil
}

// ViewTask loads a task on behalf of actorID. It applies the same project access
// and assigned-only rules as Board.
func (s *Service) ViewTask(ctx context.Context, actorID, id int64) (*Task, error) {
	actor, err := s.actors.LoadActor(ctx, actorID)
	if err != nil {
		s.logFailure("failed to load acting user", err, "user_id", actorID)
		return nil, err
	}

	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.ProjectID != nil {
		if err := s.checkProject(ctx, actor, *t.ProjectID); err != nil {
			return nil, err
		}
	}
	if s.resolver.Resolve(actor, permission.ViewAssignedOnly) && !t.IsAssignee(actorID) {
		return nil, internal.ErrForbiddenTaskAccess
	}
	return t, nil
}

// CheckTaskAccess reports whether actorID may read the task and its history.
func (s *Service) CheckTaskAccess(ctx context.Context, actorID, taskID int64) error {
	_, err := s.ViewTask(ctx, actorID, taskID)
	return err
}

// Board lists open tasks of one project lane grouped by stage. Actors limited to
// assigned-only viewing see just their own tasks.
func (s *Service) Board(ctx context.Context, actorID, projectID int64, category string) (*Board, error) {
	lane := CategoryDevelopment
	if category != "" {
		c, ok := ParseCategory(category)
		if !ok {
			return nil, internal.ErrUnknownCategory
		}
		lane = c
	}

	actor, err := s.actors.LoadActor(ctx, actorID)
	if err != nil {
		s.logFailure("failed to load acting user", err, "user_id", actorID)
		return nil, err
	}
	if err := s.checkProject(ctx, actor, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.reader.ListOpenByProject(ctx, projectID, lane)
	if err != nil {
		s.logFailure("failed to list board tasks", err, "project_id", projectID)
		return nil, err
	}

	assignedOnly := s.resolver.Resolve(actor, permission.ViewAssignedOnly)

	board := &Board{ProjectID: projectID, Category: lane}
	columns := make(map[Stage]*BoardColumn, len(Stages))
	for _, st := range Stages {
		board.Columns = append(board.Columns, BoardColumn{Stage: st, Label: st.Label(), Tasks: []*Task{}})
	}
	for i := range board.Columns {
		columns[board.Columns[i].Stage] = &board.Columns[i]
	}

	for _, t := range tasks {
		if assignedOnly && !t.IsAssignee(actorID) {
			continue
		}
		if col, ok := columns[t.Stage]; ok {
			col.Tasks = append(col.Tasks, t)
		}
	}

	return board, nil
}

func (s *Service) checkProject(ctx context.Context, actor *permission.Actor, projectID int64) error {
	if s.projects == nil {
		return nil
	}
	if err := s.projects.CheckAccess(ctx, actor, projectID); err != nil {
		s.logFailure("project access denied", err, "actor_id", actor.UserID, "project_id", projectID)
		return err
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
