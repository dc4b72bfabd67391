package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/project-management/internal/auth"
	auditDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/audit"
	projectDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/project"
	taskDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/user"
	"github.com/frahmantamala/project-management/internal/permission"
	"github.com/frahmantamala/project-management/internal/project"
	"github.com/frahmantamala/project-management/internal/task"
	"github.com/frahmantamala/project-management/internal/user"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedPassword = "password"

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with roles and demo data",
	Long: `Upsert the six roles with their default capabilities, then create a demo
organization, project and one user per role (password: "password").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer closeWithTimeout(ctx, app)

		if clearData {
			if err := clearSeedData(app.DB.Gorm); err != nil {
				return err
			}
			fmt.Println("cleared existing data")
		}

		roles, err := seedRoles(ctx, app.DB.Gorm)
		if err != nil {
			return err
		}

		org, proj, err := seedProject(ctx, app.DB.Gorm)
		if err != nil {
			return err
		}

		users, err := seedUsers(ctx, app.DB.Gorm, roles, org.ID, app.Config.Security.BCryptCost)
		if err != nil {
			return err
		}

		if err := seedMembers(ctx, app.DB.Gorm, proj.ID, users); err != nil {
			return err
		}

		return seedTasks(ctx, app, proj.ID, users)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

func roleDescription(kind permission.RoleKind) string {
	switch kind {
	case permission.RoleSystemAdministrator:
		return "Full access across organizations"
	case permission.RoleAdministrator:
		return "Administers one organization"
	case permission.RoleCoordinator:
		return "Plans and moves work across categories"
	case permission.RoleDeveloper:
		return "Works tasks through their stages"
	case permission.RoleStakeholder:
		return "Follows assigned tasks"
	case permission.RoleKeyStakeholder:
		return "Follows assigned tasks and adds project notes"
	}
	return ""
}

func seedRoles(ctx context.Context, db *gorm.DB) (map[permission.RoleKind]int64, error) {
	ids := make(map[permission.RoleKind]int64, len(permission.RoleKinds))
	for _, kind := range permission.RoleKinds {
		model := user.RoleToDataModel(&permission.Role{
			Kind:        kind,
			Description: roleDescription(kind),
			Grants:      permission.DefaultGrants[kind],
		})

		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"description",
				"can_create_users",
				"can_manage_projects",
				"can_manage_tasks",
				"can_move_task_stages",
				"can_move_task_categories",
				"can_reject_testing",
				"can_add_project_notes",
				"can_view_assigned_only",
				"can_manage_organizations",
			}),
		}).Create(model).Error
		if err != nil {
			return nil, fmt.Errorf("failed to upsert role %s: %w", kind, err)
		}

		var stored userDatamodel.Role
		if err := db.WithContext(ctx).Where("name = ?", string(kind)).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("failed to load role %s: %w", kind, err)
		}
		ids[kind] = stored.ID
		fmt.Println("seeded role:", kind)
	}
	return ids, nil
}

func seedProject(ctx context.Context, db *gorm.DB) (*projectDatamodel.Organization, *projectDatamodel.Project, error) {
	org := projectDatamodel.Organization{Name: "Demo Organization"}
	if err := db.WithContext(ctx).Where("name = ?", org.Name).FirstOrCreate(&org).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to seed organization: %w", err)
	}

	proj := projectDatamodel.Project{Name: "Customer Portal", OrganizationID: &org.ID}
	err := db.WithContext(ctx).
		Where("name = ? AND organization_id = ?", proj.Name, org.ID).
		FirstOrCreate(&proj).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to seed project: %w", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&projectDatamodel.ProjectCategory{}).Where("project_id = ?", proj.ID).Count(&count).Error; err != nil {
		return nil, nil, err
	}
	if count == 0 {
		categories := []projectDatamodel.ProjectCategory{
			{ProjectID: proj.ID, Name: "Backend", Weight: 60, Position: 1},
			{ProjectID: proj.ID, Name: "Frontend", Weight: 40, Position: 2},
		}
		if err := db.WithContext(ctx).Create(&categories).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to seed project categories: %w", err)
		}
	}

	fmt.Println("seeded project:", proj.Name)
	return &org, &proj, nil
}

type seedUser struct {
	Username string
	Name     string
	Role     permission.RoleKind
	Access   project.Access
}

var seedUserList = []seedUser{
	{Username: "sysadmin", Name: "System Admin", Role: permission.RoleSystemAdministrator},
	{Username: "admin", Name: "Org Admin", Role: permission.RoleAdministrator},
	{Username: "coordinator", Name: "Casey Coordinator", Role: permission.RoleCoordinator, Access: project.AccessMember},
	{Username: "developer", Name: "Dana Developer", Role: permission.RoleDeveloper, Access: project.AccessMember},
	{Username: "stakeholder", Name: "Sam Stakeholder", Role: permission.RoleStakeholder, Access: project.AccessViewer},
	{Username: "keystakeholder", Name: "Kim Key Stakeholder", Role: permission.RoleKeyStakeholder, Access: project.AccessCommenter},
}

func seedUsers(ctx context.Context, db *gorm.DB, roles map[permission.RoleKind]int64, orgID int64, cost int) (map[permission.RoleKind]int64, error) {
	hash, err := auth.HashPassword(seedPassword, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	ids := make(map[permission.RoleKind]int64, len(seedUserList))
	for _, su := range seedUserList {
		roleID := roles[su.Role]
		model := userDatamodel.User{
			Username:      su.Username,
			Email:         su.Username + "@example.com",
			Name:          su.Name,
			PasswordHash:  hash,
			IsActive:      true,
			IsSystemAdmin: su.Role == permission.RoleSystemAdministrator,
			RoleID:        &roleID,
		}
		if su.Role == permission.RoleAdministrator {
			model.AdminOrganizationID = &orgID
		}

		if err := db.WithContext(ctx).Where("username = ?", su.Username).FirstOrCreate(&model).Error; err != nil {
			return nil, fmt.Errorf("failed to seed user %s: %w", su.Username, err)
		}
		ids[su.Role] = model.ID
		fmt.Println("seeded user:", su.Username)
	}
	return ids, nil
}

func seedMembers(ctx context.Context, db *gorm.DB, projectID int64, users map[permission.RoleKind]int64) error {
	for _, su := range seedUserList {
		if su.Access == "" {
			continue
		}
		member := projectDatamodel.ProjectMember{ProjectID: projectID, UserID: users[su.Role], Access: string(su.Access)}
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
			return fmt.Errorf("failed to seed member %s: %w", su.Username, err)
		}
	}
	return nil
}

// seedTasks goes through the engine so the demo tasks get their audit records.
func seedTasks(ctx context.Context, app *App, projectID int64, users map[permission.RoleKind]int64) error {
	var count int64
	if err := app.DB.Gorm.WithContext(ctx).Model(&taskDatamodel.TaskInstance{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	coordinator := users[permission.RoleCoordinator]
	developer := users[permission.RoleDeveloper]
	stakeholder := users[permission.RoleStakeholder]

	demo := []task.CreateTaskDTO{
		{Title: "Login page", StoryPoints: 5, Assignees: []int64{developer, stakeholder}},
		{Title: "Password reset flow", StoryPoints: 3, Assignees: []int64{developer}},
		{Title: "Release checklist", Category: string(task.CategoryGeneral), StoryPoints: 1},
	}
	for _, dto := range demo {
		t, err := app.Tasks.CreateTask(ctx, coordinator, projectID, dto)
		if err != nil {
			return fmt.Errorf("failed to seed task %q: %w", dto.Title, err)
		}
		fmt.Printf("seeded task #%d: %s\n", t.ID, t.Title)
	}
	return nil
}

func clearSeedData(db *gorm.DB) error {
	models := []interface{}{
		&auditDatamodel.AuditLog{},
		&taskDatamodel.TaskAssignee{},
		&taskDatamodel.TaskInstance{},
		&projectDatamodel.ProjectCategory{},
		&projectDatamodel.ProjectMember{},
		&projectDatamodel.Project{},
		&userDatamodel.User{},
		&projectDatamodel.Organization{},
		&userDatamodel.Role{},
	}
	for _, m := range models {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", m, err)
		}
	}
	return nil
}
