// Package permission resolves what an actor may do from its role defaults,
// per-user overrides and the system administrator bypass.
package permission

// Capability is one of the nine permission flags carried by roles and users.
type Capability string

const (
	CreateUsers         Capability = "create_users"
	ManageProjects      Capability = "manage_projects"
	ManageTasks         Capability = "manage_tasks"
	MoveTaskStages      Capability = "move_task_stages"
	MoveTaskCategories  Capability = "move_task_categories"
	RejectTesting       Capability = "reject_testing"
	AddProjectNotes     Capability = "add_project_notes"
	ViewAssignedOnly    Capability = "view_assigned_only"
	ManageOrganizations Capability = "manage_organizations"
)

// All lists capabilities in their canonical order.
var All = []Capability{
	CreateUsers,
	ManageProjects,
	ManageTasks,
	MoveTaskStages,
	MoveTaskCategories,
	RejectTesting,
	AddProjectNotes,
	ViewAssignedOnly,
	ManageOrganizations,
}

func (c Capability) Valid() bool {
	for _, known := range All {
		if c == known {
			return true
		}
	}
	return false
}

// RoleKind names one of the fixed role bundles.
type RoleKind string

const (
	RoleSystemAdministrator RoleKind = "system_administrator"
	RoleAdministrator       RoleKind = "administrator"
	RoleCoordinator         RoleKind = "coordinator"
	RoleDeveloper           RoleKind = "developer"
	RoleStakeholder         RoleKind = "stakeholder"
	RoleKeyStakeholder      RoleKind = "key_stakeholder"
)

// Role is a named bundle of capability defaults. Capabilities absent from
// Grants default to false.
type Role struct {
	ID          int64
	Kind        RoleKind
	Description string
	Grants      map[Capability]bool
}

// Actor is the permission-bearing view of a user. An entry in Overrides is a
// non-null per-user flag; a missing entry defers to the role.
type Actor struct {
	UserID              int64
	Role                *Role
	Overrides           map[Capability]bool
	SystemAdministrator bool
	AdminOrganizationID *int64
}

// IsSystemAdministrator is true for the explicit flag and for holders of the
// system administrator role.
func (a *Actor) IsSystemAdministrator() bool {
	if a == nil {
		return false
	}
	return a.SystemAdministrator || (a.Role != nil && a.Role.Kind == RoleSystemAdministrator)
}

// DefaultGrants are the capability bundles installed by the seeder.
var DefaultGrants = map[RoleKind]map[Capability]bool{
	RoleSystemAdministrator: grantsExcept(ViewAssignedOnly),
	RoleAdministrator:       grantsExcept(ViewAssignedOnly, ManageOrganizations),
	RoleCoordinator:         grantsExcept(ViewAssignedOnly, ManageOrganizations),
	RoleDeveloper:           grantsOnly(ManageTasks, MoveTaskStages),
	RoleStakeholder:         grantsOnly(ViewAssignedOnly),
	RoleKeyStakeholder:      grantsOnly(ViewAssignedOnly, AddProjectNotes),
}

// RoleKinds lists role kinds in seeding order.
var RoleKinds = []RoleKind{
	RoleSystemAdministrator,
	RoleAdministrator,
	RoleCoordinator,
	RoleDeveloper,
	RoleStakeholder,
	RoleKeyStakeholder,
}

func grantsOnly(caps ...Capability) map[Capability]bool {
	grants := make(map[Capability]bool, len(All))
	for _, c := range All {
		grants[c] = false
	}
	for _, c := range caps {
		grants[c] = true
	}
	return grants
}

func grantsExcept(caps ...Capability) map[Capability]bool {
	grants := make(map[Capability]bool, len(All))
	for _, c := range All {
		grants[c] = true
	}
	for _, c := range caps {
		grants[c] = false
	}
	return grants
}
