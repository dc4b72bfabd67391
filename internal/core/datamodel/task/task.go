package task

import "time"

type TaskInstance struct {
	ID                int64      `gorm:"primaryKey"`
	Title             string     `gorm:"column:title;size:300;not null"`
	Description       string     `gorm:"column:description"`
	ProjectID         *int64     `gorm:"column:project_id;index"`
	ProjectCategoryID *int64     `gorm:"column:project_category_id"`
	CoordinatorID     *int64     `gorm:"column:coordinator_id"`
	CreatedByID       *int64     `gorm:"column:created_by_id"`
	Category          string     `gorm:"column:category;size:20;not null"`
	Stage             string     `gorm:"column:stage;size:20;not null"`
	StoryPoints       int        `gorm:"column:story_points;not null"`
	PointsEarned      bool       `gorm:"column:points_earned;not null"`
	Deadline          *time.Time `gorm:"column:deadline;type:date"`
	StartDate         *time.Time `gorm:"column:start_date;type:date"`
	EndDate           *time.Time `gorm:"column:end_date;type:date"`
	ParentTaskID      *int64     `gorm:"column:parent_task_id;index"`
	OriginalCategory  *string    `gorm:"column:original_category;size:20"`
	IsClosed          bool       `gorm:"column:is_closed;not null"`
	Version           int64      `gorm:"column:version;not null"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TaskAssignee keeps the ordered assignee set of a task.
type TaskAssignee struct {
	TaskID   int64 `gorm:"column:task_id;primaryKey"`
	UserID   int64 `gorm:"column:user_id;primaryKey"`
	Position int   `gorm:"column:position;not null"`
}
