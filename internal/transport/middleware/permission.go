package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/auth"
	"github.com/frahmantamala/project-management/internal/permission"
	"github.com/frahmantamala/project-management/internal/transport"
)

// RequireCapability lets the request through when the authenticated user
// resolves any of the given capabilities. It must run after the auth
// middleware.
func RequireCapability(logger *slog.Logger, caps ...permission.Capability) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	resolver := permission.NewResolver()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				base.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			for _, c := range caps {
				if resolver.Resolve(user.Actor, c) {
					next.ServeHTTP(w, r)
					return
				}
			}

			base.Logger.Warn("access denied: missing capability",
				"user_id", user.ID,
				"required", caps)
			base.HandleServiceError(w, internal.ErrMissingCapability)
		})
	}
}
