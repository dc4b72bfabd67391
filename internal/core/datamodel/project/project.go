package project

import "time"

type Organization struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;size:200;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedByID *int64    `gorm:"column:created_by_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type Project struct {
	ID             int64     `gorm:"primaryKey"`
	OrganizationID *int64    `gorm:"column:organization_id;index"`
	Name           string    `gorm:"column:name;size:200;not null"`
	Description    string    `gorm:"column:description"`
	CreatedByID    *int64    `gorm:"column:created_by_id"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ProjectMember.Access is one of member, commenter or viewer.
type ProjectMember struct {
	ProjectID int64  `gorm:"column:project_id;primaryKey"`
	UserID    int64  `gorm:"column:user_id;primaryKey"`
	Access    string `gorm:"column:access;size:20;primaryKey"`
}

type ProjectCategory struct {
	ID        int64  `gorm:"primaryKey"`
	ProjectID int64  `gorm:"column:project_id;index;not null"`
	Name      string `gorm:"column:name;size:100;not null"`
	Weight    int    `gorm:"column:weight;not null"`
	Position  int    `gorm:"column:position;not null"`
}
