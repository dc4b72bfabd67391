package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/project-management/internal/audit"
	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/project"
	"github.com/frahmantamala/project-management/internal/task"
	"github.com/frahmantamala/project-management/internal/transport"
	"github.com/frahmantamala/project-management/internal/transport/rest"
	"github.com/frahmantamala/project-management/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startHTTPServer(cmd.Context())
	},
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Auth:    auth.NewHandler(app.Auth),
		User:    user.NewHandler(app.Users),
		Task:    task.NewHandler(app.Tasks, task.SystemClock),
		Project: project.NewHandler(transport.NewBaseHandler(app.Logger), app.Projects),
		Audit:   audit.NewHandler(app.Audit, app.Tasks),
	}, rest.RouterOptions{
		DB:             app.DB.Raw,
		DBComponent:    app.DB.Driver,
		AllowedOrigins: app.Config.Server.AllowedOrigins,
		Logger:         app.Logger,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	app.Logger.Info("starting http server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: app.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       app.Config.Server.ReadTimeout,
		WriteTimeout:      app.Config.Server.WriteTimeout,
		IdleTimeout:       app.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	shutdownCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	select {
	case sig := <-sigChan:
		app.Logger.Info("received signal, shutting down", "signal", sig.String())
		sctx, cancel := shutdownCtx()
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			app.Logger.Error("server shutdown error", "error", err)
		}
		app.Close(sctx)
	case err := <-serverErrChan:
		sctx, cancel := shutdownCtx()
		defer cancel()
		app.Close(sctx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	app.Logger.Info("server stopped")
	return nil
}
