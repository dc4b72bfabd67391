package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/audit"
	auditPostgres "github.com/frahmantamala/project-management/internal/audit/postgres"
	"github.com/frahmantamala/project-management/internal/auth"
	authPostgres "github.com/frahmantamala/project-management/internal/auth/postgres"
	"github.com/frahmantamala/project-management/internal/core/events"
	"github.com/frahmantamala/project-management/internal/project"
	projectPostgres "github.com/frahmantamala/project-management/internal/project/postgres"
	"github.com/frahmantamala/project-management/internal/task"
	taskPostgres "github.com/frahmantamala/project-management/internal/task/postgres"
	"github.com/frahmantamala/project-management/internal/telemetry"
	"github.com/frahmantamala/project-management/internal/user"
	userPostgres "github.com/frahmantamala/project-management/internal/user/postgres"
	"github.com/frahmantamala/project-management/pkg/logger"
)

const version = "1.0.0"

// App holds the wired services shared by the server and the CLI commands.
type App struct {
	Config   *internal.Config
	DB       *Database
	Logger   *slog.Logger
	Bus      *events.EventBus
	Users    *user.Service
	Auth     *auth.Service
	Projects *project.Service
	Tasks    *task.Service
	Audit    *audit.Service
}

func newApp(ctx context.Context) (*App, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.L()

	if err := telemetry.Init(ctx, cfg.Observability.Telemetry, version); err != nil {
		return nil, err
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)
	metrics, err := telemetry.NewTaskMetrics(telemetry.Meter(""))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task metrics: %w", err)
	}
	metrics.Register(bus)

	users := user.NewService(userPostgres.NewUserRepository(db.Gorm), lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(db.Gorm), tokens, users, lg)

	projects := project.NewService(
		projectPostgres.NewProjectRepository(db.Gorm),
		projectPostgres.NewStatsRepository(db.SQLX),
		users,
		lg,
	)

	tasks := task.NewService(
		taskPostgres.NewUnitOfWork(db.Gorm),
		taskPostgres.NewTaskRepository(db.Gorm),
		users,
		projects,
		bus,
		task.SystemClock,
		lg,
	)

	return &App{
		Config:   cfg,
		DB:       db,
		Logger:   lg,
		Bus:      bus,
		Users:    users,
		Auth:     authService,
		Projects: projects,
		Tasks:    tasks,
		Audit:    audit.NewService(auditPostgres.NewAuditRepository(db.Gorm), lg),
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if err := a.Bus.Drain(ctx); err != nil {
		a.Logger.Warn("event bus drain incomplete", "error", err)
	}
	telemetry.Shutdown(ctx)
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// closeTimeout bounds how long a one-shot command waits for event handlers and
// exporters on exit.
const closeTimeout = 5 * time.Second

func closeWithTimeout(ctx context.Context, app *App) {
	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	app.Close(closeCtx)
}
