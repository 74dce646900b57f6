package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/timeR3/ToolCTV/internal/audit"
	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/authz"
	"github.com/timeR3/ToolCTV/internal/category"
	"github.com/timeR3/ToolCTV/internal/tool"
	"github.com/timeR3/ToolCTV/internal/transport/middleware"
	"github.com/timeR3/ToolCTV/internal/transport/swagger"
	"github.com/timeR3/ToolCTV/internal/user"
)

// Handlers bundles the per-domain handlers the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Tool        *tool.Handler
	Category    *category.Handler
	Permission  *authz.Handler
	AuditLog    *audit.Handler
	Authorize   *authz.Authorization
	SessionGate *auth.SessionManager
}

// RegisterAllRoutes wires the full API surface. Auth endpoints stay public;
// everything else sits behind the session middleware, with permission
// middleware groups mirroring the management screens.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.Gate(h.SessionGate))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/register", h.Auth.Register)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require a resolvable session
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.SessionMiddleware)

			pr.Get("/auth/me", h.Auth.Me)

			// Tool catalog: listing is assignment-filtered inside the
			// service, mutations carry their own ownership checks.
			pr.Route("/tools", func(tr chi.Router) {
				tr.Get("/", h.Tool.List)
				tr.Get("/{id}", h.Tool.Get)

				tr.Group(func(mr chi.Router) {
					mr.Use(h.Authorize.Require(authz.PermAccessManageTools))
					mr.Post("/", h.Tool.Create)
				})
				tr.Put("/{id}", h.Tool.Update)
				tr.Delete("/{id}", h.Tool.Delete)
			})

			pr.Route("/categories", func(cr chi.Router) {
				cr.Get("/", h.Category.List)
				cr.Get("/{id}", h.Category.Get)

				cr.Group(func(mr chi.Router) {
					mr.Use(h.Authorize.Require(authz.PermAccessManageCategories))
					mr.Post("/", h.Category.Create)
					mr.Put("/{id}", h.Category.Update)
					mr.Delete("/{id}", h.Category.Delete)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				// Profile edits authorize inside the service: self-service
				// or edit_any_user.
				ur.Put("/{id}", h.User.UpdateProfile)

				ur.Group(func(mr chi.Router) {
					mr.Use(h.Authorize.Require(authz.PermAccessManageUsers))
					mr.Get("/", h.User.List)
					mr.Get("/{id}", h.User.Get)
				})

				ur.Group(func(mr chi.Router) {
					mr.Use(h.Authorize.Require(authz.PermChangeUserRoles))
					mr.Put("/{id}/role", h.User.UpdateRole)
				})

				ur.Group(func(mr chi.Router) {
					mr.Use(h.Authorize.Require(authz.PermAssignTools))
					mr.Put("/{id}/tools", h.User.AssignTools)
				})
			})

			pr.Route("/permissions", func(pmr chi.Router) {
				pmr.Use(h.Authorize.Require(authz.PermAccessManagePermissions))
				pmr.Get("/", h.Permission.ListPermissions)
				pmr.Get("/matrix", h.Permission.RolePermissionMatrix)
				pmr.Post("/matrix", h.Permission.SetRolePermission)
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(h.Authorize.Require(authz.PermAccessAuditLog))
				ar.Get("/audit-logs", h.AuditLog.List)
			})
		})
	})
}
