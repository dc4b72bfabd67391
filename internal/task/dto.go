package task

import (
	"strings"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

// CreateTaskDTO is the payload for creating a task directly (not by cloning).
type CreateTaskDTO struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category,omitempty"`
	Stage             string  `json:"stage,omitempty"`
	StoryPoints       int     `json:"story_points"`
	Deadline          string  `json:"deadline,omitempty"`
	ProjectCategoryID *int64  `json:"project_category_id,omitempty"`
	CoordinatorID     *int64  `json:"coordinator_id,omitempty"`
	Assignees         []int64 `json:"assignees,omitempty"`
}

func (dto CreateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", strings.TrimSpace(dto.Title)).
		Required().
		MaxLength(300)
	v.Field("story_points", dto.StoryPoints).
		MinInt(0, internal.ErrCodeInvalidPoints).
		MaxInt(1000, internal.ErrCodeInvalidPoints)
	v.Field("category", dto.Category).
		OneOf(internal.ErrCodeUnknownCategory, categoryNames()...)
	v.Field("stage", dto.Stage).
		OneOf(internal.ErrCodeUnknownStage, stageNames()...)
	v.Field("deadline", dto.Deadline).
		Custom(func(value interface{}) *internal.AppError {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			if _, err := time.Parse(dateLayout, s); err != nil {
				return internal.NewValidationFieldError("deadline", "deadline must be a date in YYYY-MM-DD format", internal.ErrCodeInvalidDate)
			}
			return nil
		})
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ParsedDeadline returns nil for an empty deadline. Call Validate first.
func (dto CreateTaskDTO) ParsedDeadline() *time.Time {
	if dto.Deadline == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, dto.Deadline)
	if err != nil {
		return nil
	}
	return &d
}

// MoveTaskDTO requests a transition. Omitted fields are left unchanged.
type MoveTaskDTO struct {
	Stage    string `json:"stage,omitempty"`
	Category string `json:"category,omitempty"`
}

type MoveTaskResponse struct {
	OK            bool     `json:"ok"`
	Stage         Stage    `json:"stage"`
	Category      Category `json:"category"`
	PointsAwarded bool     `json:"points_awarded"`
	CloneID       *int64   `json:"clone_id,omitempty"`
}

// TaskDetailResponse adds derived statuses to a task.
type TaskDetailResponse struct {
	*Task
	CategoryLabel string `json:"category_label"`
	StageLabel    string `json:"stage_label"`
	DueStatus     string `json:"due_status"`
	OnTimeStatus  string `json:"on_time_status"`
	StageStatus   string `json:"stage_status"`
}

func NewTaskDetailResponse(t *Task, now time.Time) TaskDetailResponse {
	return TaskDetailResponse{
		Task:          t,
		CategoryLabel: t.Category.Label(),
		StageLabel:    t.Stage.Label(),
		DueStatus:     t.DueStatus(now),
		OnTimeStatus:  t.OnTimeStatus(),
		StageStatus:   t.StageStatus(),
	}
}

type BoardColumn struct {
	Stage Stage   `json:"stage"`
	Label string  `json:"label"`
	Tasks []*Task `json:"tasks"`
}

// Board is the open work of one project lane, one column per stage.
type Board struct {
	ProjectID int64         `json:"project_id"`
	Category  Category      `json:"category"`
	Columns   []BoardColumn `json:"columns"`
}

func categoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

func stageNames() []string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = string(s)
	}
	return names
}
