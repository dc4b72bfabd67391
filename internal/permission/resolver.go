package permission

// Resolver answers capability queries. It holds no state.
type Resolver struct{}

func NewResolver() Resolver {
	return Resolver{}
}

// Resolve reports whether actor holds capability c. System administrators hold
// everything except assigned-only viewing. Unknown capabilities resolve false.
func (Resolver) Resolve(actor *Actor, c Capability) bool {
	if actor == nil || !c.Valid() {
		return false
	}

	if actor.IsSystemAdministrator() {
		return c != ViewAssignedOnly
	}

	if v, ok := actor.Overrides[c]; ok {
		return v
	}

	if actor.Role == nil {
		return false
	}
	return actor.Role.Grants[c]
}

// ResolveAll returns the resolved value of every capability.
func (r Resolver) ResolveAll(actor *Actor) map[Capability]bool {
	out := make(map[Capability]bool, len(All))
	for _, c := range All {
		out[c] = r.Resolve(actor, c)
	}
	return out
}

// IsOrgAdmin reports whether actor administers the given organization.
func (Resolver) IsOrgAdmin(actor *Actor, organizationID int64) bool {
	if actor == nil || actor.Role == nil || actor.AdminOrganizationID == nil {
		return false
	}
	return actor.Role.Kind == RoleAdministrator && *actor.AdminOrganizationID == organizationID
}
