package authz

import (
	"log/slog"
	"net/http"

	"github.com/timeR3/ToolCTV/internal/auth"
)

// Authorization wraps the engine as chi-compatible route middleware, the
// request-path counterpart of the engine's service-level checks.
type Authorization struct {
	engine *Engine
	logger *slog.Logger
}

func NewAuthorization(engine *Engine, logger *slog.Logger) *Authorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorization{engine: engine, logger: logger}
}

func (a *Authorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok || user == nil {
			a.logger.Warn("authorization check failed: user not found in context")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if !a.engine.HasPermission(r.Context(), user, permission) {
			a.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"role", user.Role,
				"required_permission", permission)
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Require gates a route group behind a named permission.
func (a *Authorization) Require(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.Check(next.ServeHTTP, permission)
	}
}
