package user

import "time"

type Role struct {
	ID                     int64     `gorm:"primaryKey"`
	Name                   string    `gorm:"column:name;size:50;uniqueIndex;not null"`
	Description            string    `gorm:"column:description"`
	CanCreateUsers         bool      `gorm:"column:can_create_users;not null"`
	CanManageProjects      bool      `gorm:"column:can_manage_projects;not null"`
	CanManageTasks         bool      `gorm:"column:can_manage_tasks;not null"`
	CanMoveTaskStages      bool      `gorm:"column:can_move_task_stages;not null"`
	CanMoveTaskCategories  bool      `gorm:"column:can_move_task_categories;not null"`
	CanRejectTesting       bool      `gorm:"column:can_reject_testing;not null"`
	CanAddProjectNotes     bool      `gorm:"column:can_add_project_notes;not null"`
	CanViewAssignedOnly    bool      `gorm:"column:can_view_assigned_only;not null"`
	CanManageOrganizations bool      `gorm:"column:can_manage_organizations;not null"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// User carries nullable per-user overrides; NULL defers to the role.
type User struct {
	ID                      int64     `gorm:"primaryKey"`
	Username                string    `gorm:"column:username;size:150;uniqueIndex;not null"`
	Email                   string    `gorm:"column:email;uniqueIndex;not null"`
	Name                    string    `gorm:"column:name;not null"`
	PasswordHash            string    `gorm:"column:password_hash;not null"`
	IsActive                bool      `gorm:"column:is_active;not null"`
	IsSystemAdmin           bool      `gorm:"column:is_system_admin;not null"`
	RoleID                  *int64    `gorm:"column:role_id"`
	Role                    *Role     `gorm:"foreignKey:RoleID"`
	AdminOrganizationID     *int64    `gorm:"column:admin_organization_id"`
	PermCreateUsers         *bool     `gorm:"column:perm_create_users"`
	PermManageProjects      *bool     `gorm:"column:perm_manage_projects"`
	PermManageTasks         *bool     `gorm:"column:perm_manage_tasks"`
	PermMoveTaskStages      *bool     `gorm:"column:perm_move_task_stages"`
	PermMoveTaskCategories  *bool     `gorm:"column:perm_move_task_categories"`
	PermRejectTesting       *bool     `gorm:"column:perm_reject_testing"`
	PermAddProjectNotes     *bool     `gorm:"column:perm_add_project_notes"`
	PermViewAssignedOnly    *bool     `gorm:"column:perm_view_assigned_only"`
	PermManageOrganizations *bool     `gorm:"column:perm_manage_organizations"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
