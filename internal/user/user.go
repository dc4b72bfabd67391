package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/user"
	"github.com/frahmantamala/project-management/internal/permission"
)

type User struct {
	ID                  int64                          `json:"id"`
	Username            string                         `json:"username"`
	Email               string                         `json:"email"`
	Name                string                         `json:"name"`
	PasswordHash        string                         `json:"-"`
	IsActive            bool                           `json:"is_active"`
	IsSystemAdmin       bool                           `json:"is_system_admin"`
	Role                *permission.Role               `json:"-"`
	AdminOrganizationID *int64                         `json:"admin_organization_id,omitempty"`
	Overrides           map[permission.Capability]bool `json:"-"`
	CreatedAt           time.Time                      `json:"created_at"`
	UpdatedAt           time.Time                      `json:"updated_at"`
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}

// Actor is the view of u the permission resolver works on.
func (u *User) Actor() *permission.Actor {
	return &permission.Actor{
		UserID:              u.ID,
		Role:                u.Role,
		Overrides:           u.Overrides,
		SystemAdministrator: u.IsSystemAdmin,
		AdminOrganizationID: u.AdminOrganizationID,
	}
}

func RoleFromDataModel(r *userDatamodel.Role) *permission.Role {
	if r == nil {
		return nil
	}
	return &permission.Role{
		ID:          r.ID,
		Kind:        permission.RoleKind(r.Name),
		Description: r.Description,
		Grants: map[permission.Capability]bool{
			permission.CreateUsers:         r.CanCreateUsers,
			permission.ManageProjects:      r.CanManageProjects,
			permission.ManageTasks:         r.CanManageTasks,
			permission.MoveTaskStages:      r.CanMoveTaskStages,
			permission.MoveTaskCategories:  r.CanMoveTaskCategories,
			permission.RejectTesting:       r.CanRejectTesting,
			permission.AddProjectNotes:     r.CanAddProjectNotes,
			permission.ViewAssignedOnly:    r.CanViewAssignedOnly,
			permission.ManageOrganizations: r.CanManageOrganizations,
		},
	}
}

func RoleToDataModel(r *permission.Role) *userDatamodel.Role {
	g := r.Grants
	return &userDatamodel.Role{
		ID:                     r.ID,
		Name:                   string(r.Kind),
		Description:            r.Description,
		CanCreateUsers:         g[permission.CreateUsers],
		CanManageProjects:      g[permission.ManageProjects],
		CanManageTasks:         g[permission.ManageTasks],
		CanMoveTaskStages:      g[permission.MoveTaskStages],
		CanMoveTaskCategories:  g[permission.MoveTaskCategories],
		CanRejectTesting:       g[permission.RejectTesting],
		CanAddProjectNotes:     g[permission.AddProjectNotes],
		CanViewAssignedOnly:    g[permission.ViewAssignedOnly],
		CanManageOrganizations: g[permission.ManageOrganizations],
	}
}

func overridesOf(u *userDatamodel.User) map[permission.Capability]bool {
	columns := map[permission.Capability]*bool{
		permission.CreateUsers:         u.PermCreateUsers,
		permission.ManageProjects:      u.PermManageProjects,
		permission.ManageTasks:         u.PermManageTasks,
		permission.MoveTaskStages:      u.PermMoveTaskStages,
		permission.MoveTaskCategories:  u.PermMoveTaskCategories,
		permission.RejectTesting:       u.PermRejectTesting,
		permission.AddProjectNotes:     u.PermAddProjectNotes,
		permission.ViewAssignedOnly:    u.PermViewAssignedOnly,
		permission.ManageOrganizations: u.PermManageOrganizations,
	}

	overrides := make(map[permission.Capability]bool)
	for c, v := range columns {
		if v != nil {
			overrides[c] = *v
		}
	}
	return overrides
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		Name:                u.Name,
		PasswordHash:        u.PasswordHash,
		IsActive:            u.IsActive,
		IsSystemAdmin:       u.IsSystemAdmin,
		Role:                RoleFromDataModel(u.Role),
		AdminOrganizationID: u.AdminOrganizationID,
		Overrides:           overridesOf(u),
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
