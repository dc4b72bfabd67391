package project

import (
	"math"
	"time"

	projectDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/project"
)

// Access is the level a non-administrator holds on a project.
type Access string

const (
	AccessMember    Access = "member"
	AccessCommenter Access = "commenter"
	AccessViewer    Access = "viewer"
)

type Project struct {
	ID             int64     `json:"id"`
	OrganizationID *int64    `json:"organization_id,omitempty"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedByID    *int64    `json:"created_by_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TaskStats counts the open tasks of a project.
type TaskStats struct {
	Total            int `json:"total" db:"total"`
	Done             int `json:"done" db:"done"`
	InProgress       int `json:"in_progress" db:"in_progress"`
	HavingIssues     int `json:"having_issues" db:"having_issues"`
	TotalStoryPoints int `json:"total_story_points" db:"total_story_points"`
	DoneStoryPoints  int `json:"done_story_points" db:"done_story_points"`
}

func (s TaskStats) RemainingStoryPoints() int {
	return s.TotalStoryPoints - s.DoneStoryPoints
}

// CategoryProgress is one weighted project category and its open tasks.
type CategoryProgress struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Weight int    `json:"weight" db:"weight"`
	Total  int    `json:"total" db:"total"`
	Done   int    `json:"done" db:"done"`
}

// Completion is the rounded share of done tasks, 0 to 100.
func (c CategoryProgress) Completion() int {
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Done) / float64(c.Total) * 100))
}

// Progress weights each category's completion by its weight and caps the sum
// at 100. A project without categories falls back to its plain done ratio.
func Progress(categories []CategoryProgress, stats TaskStats) int {
	if len(categories) == 0 {
		if stats.Total == 0 {
			return 0
		}
		return int(math.Round(float64(stats.Done) / float64(stats.Total) * 100))
	}

	weighted := 0
	for _, c := range categories {
		weighted += c.Completion() * c.Weight
	}
	return min(int(math.Round(float64(weighted)/100)), 100)
}

func FromDataModel(p *projectDatamodel.Project) *Project {
	return &Project{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		CreatedByID:    p.CreatedByID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
