package task

import (
	"context"
	"slices"
)

// CloneSpec describes the successor to create. A nil StoryPoints copies the
// source's value.
type CloneSpec struct {
	Category         Category
	Stage            Stage
	OriginalCategory Category
	StoryPoints      *int
}

// LineageCloner creates the successor of a task when a milestone is reached.
type LineageCloner struct {
	clock Clock
}

func NewLineageCloner(clock Clock) *LineageCloner {
	return &LineageCloner{clock: clock}
}

// Clone persists a child of source. Identity fields and the ordered assignee
// set are copied; points, dates and closure start fresh. The caller writes the
// audit record.
func (c *LineageCloner) Clone(ctx context.Context, store Store, source *Task, spec CloneSpec, actorID int64) (*Task, error) {
	points := source.StoryPoints
	if spec.StoryPoints != nil {
		points = *spec.StoryPoints
	}

	parentID := source.ID
	createdBy := actorID
	now := c.clock.Now()

	clone := &Task{
		Title:             source.Title,
		Description:       source.Description,
		ProjectID:         source.ProjectID,
		ProjectCategoryID: source.ProjectCategoryID,
		CoordinatorID:     source.CoordinatorID,
		CreatedByID:       &createdBy,
		Category:          spec.Category,
		Stage:             spec.Stage,
		StoryPoints:       points,
		Deadline:          source.Deadline,
		ParentTaskID:      &parentID,
		OriginalCategory:  spec.OriginalCategory,
		Assignees:         slices.Clone(source.Assignees),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if clone.Assignees == nil {
		clone.Assignees = []int64{}
	}

	if err := store.Create(ctx, clone); err != nil {
		return nil, err
	}
	return clone, nil
}
