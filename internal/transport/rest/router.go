package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/project-management/api"
	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/permission"
	"github.com/frahmantamala/project-management/internal/project"
	"github.com/frahmantamala/project-management/internal/task"
	"github.com/frahmantamala/project-management/internal/transport"
	"github.com/frahmantamala/project-management/internal/transport/middleware"
	"github.com/frahmantamala/project-management/internal/transport/swagger"
	"github.com/frahmantamala/project-management/internal/user"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. Nil handlers leave their
// routes out.
type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Task    *task.Handler
	Project *project.Handler
	Audit   *audit.Handler
}

type RouterOptions struct {
	DB             *sql.DB
	DBComponent    string
	AllowedOrigins string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers, opts RouterOptions) {
	healthHandler := NewHealthHandler(transport.NewBaseHandler(opts.Logger), opts.DB, opts.DBComponent)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Get("/ping", healthHandler.Ping)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			pr.Route("/projects/{projectID}", func(prj chi.Router) {
				if h.Task != nil {
					prj.Get("/board", h.Task.GetBoard)
					prj.With(middleware.RequireCapability(opts.Logger, permission.ManageTasks)).
						Post("/tasks", h.Task.CreateTask)
				}
				if h.Project != nil {
					prj.Get("/stats", h.Project.GetStats)
				}
			})

			pr.Route("/tasks/{id}", func(tr chi.Router) {
				if h.Task != nil {
					tr.Get("/", h.Task.GetTask)
					tr.Post("/move", h.Task.MoveTask)
				}
				if h.Audit != nil {
					tr.Get("/audit", h.Audit.GetTaskHistory)
				}
			})
		})
	})
}
