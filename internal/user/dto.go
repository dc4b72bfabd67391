package user

import "github.com/frahmantamala/project-management/internal/permission"

// ProfileResponse is the current user with every capability resolved.
type ProfileResponse struct {
	ID                  int64                          `json:"id"`
	Username            string                         `json:"username"`
	Email               string                         `json:"email"`
	Name                string                         `json:"name"`
	Role                string                         `json:"role,omitempty"`
	IsSystemAdmin       bool                           `json:"is_system_admin"`
	AdminOrganizationID *int64                         `json:"admin_organization_id,omitempty"`
	Capabilities        map[permission.Capability]bool `json:"capabilities"`
}
