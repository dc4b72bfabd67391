package permission_test

import (
	"github.com/frahmantamala/project-management/internal/permission"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func roleOf(kind permission.RoleKind) *permission.Role {
	return &permission.Role{ID: 1, Kind: kind, Grants: permission.DefaultGrants[kind]}
}

func int64Ptr(v int64) *int64 { return &v }

var _ = Describe("Resolver", func() {
	var resolver permission.Resolver

	BeforeEach(func() {
		resolver = permission.NewResolver()
	})

	Describe("Resolve", func() {
		Context("when the actor only has a role", func() {
			It("should return the role default", func() {
				// Given
				actor := &permission.Actor{UserID: 7, Role: roleOf(permission.RoleDeveloper)}

				// When / Then
				Expect(resolver.Resolve(actor, permission.MoveTaskStages)).To(BeTrue())
				Expect(resolver.Resolve(actor, permission.MoveTaskCategories)).To(BeFalse())
				Expect(resolver.Resolve(actor, permission.RejectTesting)).To(BeFalse())
			})
		})

		Context("when the actor has an override", func() {
			It("should let a true override win over a false default", func() {
				actor := &permission.Actor{
					UserID:    7,
					Role:      roleOf(permission.RoleDeveloper),
					Overrides: map[permission.Capability]bool{permission.RejectTesting: true},
				}

				Expect(resolver.Resolve(actor, permission.RejectTesting)).To(BeTrue())
			})

			It("should let a false override win over a true default", func() {
				actor := &permission.Actor{
					UserID:    7,
					Role:      roleOf(permission.RoleCoordinator),
					Overrides: map[permission.Capability]bool{permission.MoveTaskStages: false},
				}

				Expect(resolver.Resolve(actor, permission.MoveTaskStages)).To(BeFalse())
				Expect(resolver.Resolve(actor, permission.MoveTaskCategories)).To(BeTrue())
			})

			It("should apply overrides even without a role", func() {
				actor := &permission.Actor{
					UserID:    7,
					Overrides: map[permission.Capability]bool{permission.ManageTasks: true},
				}

				Expect(resolver.Resolve(actor, permission.ManageTasks)).To(BeTrue())
				Expect(resolver.Resolve(actor, permission.MoveTaskStages)).To(BeFalse())
			})
		})

		Context("when the actor has no role and no overrides", func() {
			It("should deny every capability", func() {
				actor := &permission.Actor{UserID: 7}
				for _, c := range permission.All {
					Expect(resolver.Resolve(actor, c)).To(BeFalse(), string(c))
				}
			})
		})

		Context("when the actor is a system administrator", func() {
			It("should grant everything except assigned-only viewing", func() {
				// Given an explicit false override, which the bypass ignores
				actor := &permission.Actor{
					UserID:              1,
					SystemAdministrator: true,
					Overrides:           map[permission.Capability]bool{permission.RejectTesting: false},
				}

				for _, c := range permission.All {
					if c == permission.ViewAssignedOnly {
						Expect(resolver.Resolve(actor, c)).To(BeFalse())
						continue
					}
					Expect(resolver.Resolve(actor, c)).To(BeTrue(), string(c))
				}
			})

			It("should treat the system administrator role like the flag", func() {
				actor := &permission.Actor{
					UserID:    1,
					Role:      &permission.Role{Kind: permission.RoleSystemAdministrator},
					Overrides: map[permission.Capability]bool{permission.ViewAssignedOnly: true},
				}

				Expect(actor.IsSystemAdministrator()).To(BeTrue())
				Expect(resolver.Resolve(actor, permission.ManageOrganizations)).To(BeTrue())
				Expect(resolver.Resolve(actor, permission.ViewAssignedOnly)).To(BeFalse())
			})
		})

		It("should deny unknown capabilities and nil actors", func() {
			actor := &permission.Actor{SystemAdministrator: true}

			Expect(resolver.Resolve(actor, permission.Capability("fly"))).To(BeFalse())
			Expect(resolver.Resolve(nil, permission.ManageTasks)).To(BeFalse())
		})
	})

	Describe("ResolveAll", func() {
		It("should resolve the stakeholder bundle", func() {
			actor := &permission.Actor{UserID: 3, Role: roleOf(permission.RoleKeyStakeholder)}

			resolved := resolver.ResolveAll(actor)

			Expect(resolved).To(HaveLen(len(permission.All)))
			Expect(resolved[permission.ViewAssignedOnly]).To(BeTrue())
			Expect(resolved[permission.AddProjectNotes]).To(BeTrue())
			Expect(resolved[permission.ManageTasks]).To(BeFalse())
		})
	})

	Describe("IsOrgAdmin", func() {
		It("should only match administrators of the same organization", func() {
			admin := &permission.Actor{
				UserID:              4,
				Role:                roleOf(permission.RoleAdministrator),
				AdminOrganizationID: int64Ptr(10),
			}

			Expect(resolver.IsOrgAdmin(admin, 10)).To(BeTrue())
			Expect(resolver.IsOrgAdmin(admin, 11)).To(BeFalse())
		})

		It("should reject coordinators and actors without an organization", func() {
			coordinator := &permission.Actor{
				UserID:              5,
				Role:                roleOf(permission.RoleCoordinator),
				AdminOrganizationID: int64Ptr(10),
			}
			unscoped := &permission.Actor{UserID: 6, Role: roleOf(permission.RoleAdministrator)}

			Expect(resolver.IsOrgAdmin(coordinator, 10)).To(BeFalse())
			Expect(resolver.IsOrgAdmin(unscoped, 10)).To(BeFalse())
			Expect(resolver.IsOrgAdmin(nil, 10)).To(BeFalse())
		})
	})
})
