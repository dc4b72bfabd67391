package task

import (
	"slices"
	"time"

	taskDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/task"
)

// Category is the workflow lane of a task.
type Category string

const (
	CategoryDevelopment    Category = "DEVELOPMENT"
	CategoryImplementation Category = "IMPLEMENTATION"
	CategoryImprovement    Category = "IMPROVEMENT"
	CategoryTesting        Category = "TESTING"
	CategoryDeployment     Category = "DEPLOYMENT"
	CategoryGeneral        Category = "GENERAL"
)

var Categories = []Category{
	CategoryDevelopment,
	CategoryImplementation,
	CategoryImprovement,
	CategoryTesting,
	CategoryDeployment,
	CategoryGeneral,
}

var categoryLabels = map[Category]string{
	CategoryDevelopment:    "Development",
	CategoryImplementation: "Implementation",
	CategoryImprovement:    "Improvement",
	CategoryTesting:        "Testing",
	CategoryDeployment:     "Deployment",
	CategoryGeneral:        "General",
}

func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categoryLabels[c]
	return c, ok
}

// IsBuild reports whether completing work in c hands it over to testing.
func (c Category) IsBuild() bool {
	return c == CategoryDevelopment || c == CategoryImplementation || c == CategoryImprovement
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Stage is the execution state of a task.
type Stage string

const (
	StageTodo         Stage = "TODO"
	StageInProgress   Stage = "IN_PROGRESS"
	StagePending      Stage = "PENDING"
	StageHavingIssues Stage = "HAVING_ISSUES"
	StageDone         Stage = "DONE"
	StageReject       Stage = "REJECT"
)

// Stages is ordered the way a board renders its columns.
var Stages = []Stage{
	StageTodo,
	StageInProgress,
	StagePending,
	StageHavingIssues,
	StageDone,
	StageReject,
}

var stageLabels = map[Stage]string{
	StageTodo:         "To Do",
	StageInProgress:   "In Progress",
	StagePending:      "Pending",
	StageHavingIssues: "Having Issues",
	StageDone:         "Done",
	StageReject:       "Reject",
}

func ParseStage(s string) (Stage, bool) {
	st := Stage(s)
	_, ok := stageLabels[st]
	return st, ok
}

func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// testingWindow is the provisional testing deadline granted to build work.
const testingWindow = 7 * 24 * time.Hour

// Task is one instance in a lineage of work items.
type Task struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	ProjectID         *int64     `json:"project_id,omitempty"`
	ProjectCategoryID *int64     `json:"project_category_id,omitempty"`
	CoordinatorID     *int64     `json:"coordinator_id,omitempty"`
	CreatedByID       *int64     `json:"created_by_id,omitempty"`
	Category          Category   `json:"category"`
	Stage             Stage      `json:"stage"`
	StoryPoints       int        `json:"story_points"`
	PointsEarned      bool       `json:"points_earned"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	StartDate         *time.Time `json:"start_date,omitempty"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	ParentTaskID      *int64     `json:"parent_task_id,omitempty"`
	OriginalCategory  Category   `json:"original_category,omitempty"`
	IsClosed          bool       `json:"is_closed"`
	Assignees         []int64    `json:"assignees"`
	Version           int64      `json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// AwardPointsOnce flips points_earned and reports whether it did. The change is
// persisted by the save that follows within the same unit of work.
func (t *Task) AwardPointsOnce() bool {
	if t.PointsEarned {
		return false
	}
	t.PointsEarned = true
	return true
}

// IsAssignee reports whether userID is on the assignee list.
func (t *Task) IsAssignee(userID int64) bool {
	return slices.Contains(t.Assignees, userID)
}

// applyDerivedDates sets start_date and end_date on their first crossing.
// prevStage and prevCategory describe the task before the move.
func (t *Task) applyDerivedDates(prevStage Stage, prevCategory Category, now time.Time) {
	today := dateOf(now)

	if t.Stage == StageInProgress && prevStage != StageInProgress && t.StartDate == nil {
		t.StartDate = &today
	}

	if t.Category == CategoryTesting && prevCategory != CategoryTesting && prevCategory.IsBuild() && t.EndDate == nil {
		due := today.Add(testingWindow)
		t.EndDate = &due
	}

	if t.Stage == StageDone && prevStage != StageDone && t.EndDate == nil {
		t.EndDate = &today
	}
}

const (
	DueStatusNoDeadline = "no_deadline"
	DueStatusOverdue    = "overdue"
	DueStatusDueToday   = "due_today"
	DueStatusDueSoon    = "due_soon"
	DueStatusOnTrack    = "on_track"
	DueStatusCompleted  = "completed"

	OnTimePending = "pending"
	OnTimeOnTime  = "on_time"
	OnTimeLate    = "late"

	StageStatusActive    = "active"
	StageStatusCompleted = "completed"
	StageStatusRejected  = "rejected"
	StageStatusClosed    = "closed"
)

const dueSoonWindow = 3

// DueStatus compares the deadline with now, by calendar day.
func (t *Task) DueStatus(now time.Time) string {
	if t.Stage == StageDone {
		return DueStatusCompleted
	}
	if t.Deadline == nil {
		return DueStatusNoDeadline
	}

	days := int(dateOf(*t.Deadline).Sub(dateOf(now)).Hours() / 24)
	switch {
	case days < 0:
		return DueStatusOverdue
	case days == 0:
		return DueStatusDueToday
	case days <= dueSoonWindow:
		return DueStatusDueSoon
	default:
		return DueStatusOnTrack
	}
}

// OnTimeStatus compares the end date with the deadline once both are known.
func (t *Task) OnTimeStatus() string {
	if t.Stage != StageDone || t.EndDate == nil || t.Deadline == nil {
		return OnTimePending
	}
	if dateOf(*t.EndDate).After(dateOf(*t.Deadline)) {
		return OnTimeLate
	}
	return OnTimeOnTime
}

func (t *Task) StageStatus() string {
	switch {
	case t.IsClosed:
		return StageStatusClosed
	case t.Stage == StageReject:
		return StageStatusRejected
	case t.Stage == StageDone:
		return StageStatusCompleted
	default:
		return StageStatusActive
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func ToDataModel(t *Task) *taskDatamodel.TaskInstance {
	var original *string
	if t.OriginalCategory != "" {
		oc := string(t.OriginalCategory)
		original = &oc
	}
	return &taskDatamodel.TaskInstance{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		ProjectID:         t.ProjectID,
		ProjectCategoryID: t.ProjectCategoryID,
		CoordinatorID:     t.CoordinatorID,
		CreatedByID:       t.CreatedByID,
		Category:          string(t.Category),
		Stage:             string(t.Stage),
		StoryPoints:       t.StoryPoints,
		PointsEarned:      t.PointsEarned,
		Deadline:          t.Deadline,
		StartDate:         t.StartDate,
		EndDate:           t.EndDate,
		ParentTaskID:      t.ParentTaskID,
		OriginalCategory:  original,
		IsClosed:          t.IsClosed,
		Version:           t.Version,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func FromDataModel(m *taskDatamodel.TaskInstance, assignees []int64) *Task {
	t := &Task{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description,
		ProjectID:         m.ProjectID,
		ProjectCategoryID: m.ProjectCategoryID,
		CoordinatorID:     m.CoordinatorID,
		CreatedByID:       m.CreatedByID,
		Category:          Category(m.Category),
		Stage:             Stage(m.Stage),
		StoryPoints:       m.StoryPoints,
		PointsEarned:      m.PointsEarned,
		Deadline:          m.Deadline,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		ParentTaskID:      m.ParentTaskID,
		IsClosed:          m.IsClosed,
		Assignees:         assignees,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.OriginalCategory != nil {
		t.OriginalCategory = Category(*m.OriginalCategory)
	}
	if t.Assignees == nil {
		t.Assignees = []int64{}
	}
	return t
}
