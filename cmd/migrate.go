package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/project-management/internal"
	auditDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/audit"
	projectDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/project"
	taskDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/task"
	userDatamodel "github.com/frahmantamala/project-management/internal/core/datamodel/user"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
		Long: `Apply the goose SQL migrations under db/migrations (postgres).
With database.driver=sqlite the schema is created from the data models instead.`,
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}

	if cfg.Database.DriverName() == internal.DriverSQLite {
		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		return autoMigrate(db.Gorm)
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}

	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}

// autoMigrate creates the schema from the data models. It backs the sqlite
// development mode, where the postgres migrations do not apply.
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userDatamodel.Role{},
		&userDatamodel.User{},
		&projectDatamodel.Organization{},
		&projectDatamodel.Project{},
		&projectDatamodel.ProjectMember{},
		&projectDatamodel.ProjectCategory{},
		&taskDatamodel.TaskInstance{},
		&taskDatamodel.TaskAssignee{},
		&auditDatamodel.AuditLog{},
	)
}
