package authz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/audit"
	"github.com/timeR3/ToolCTV/internal/auth"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

// Permission names checked in code. The catalog rows live in the
// permissions table; these constants are the stable identifiers.
const (
	PermAccessManageUsers       = "access_manage_users"
	PermAccessManageTools       = "access_manage_tools"
	PermAccessManageCategories  = "access_manage_categories"
	PermAccessManagePermissions = "access_manage_permissions"
	PermAccessAuditLog          = "access_audit_log"
	PermAssignTools             = "assign_tools"
	PermChangeUserRoles         = "change_user_roles"
	PermEditAnyUser             = "edit_any_user"
	PermEditAnyTool             = "edit_any_tool"
	PermEditOwnTool             = "edit_own_tool"
	PermDeleteAnyTool           = "delete_any_tool"
	PermDeleteOwnTool           = "delete_own_tool"
)

// GrantRepository is the slice of the store the engine reads and mutates.
type GrantRepository interface {
	HasGrant(ctx context.Context, role auth.Role, permissionName string) (bool, error)
	Grant(ctx context.Context, role auth.Role, permissionID int64) error
	Revoke(ctx context.Context, role auth.Role, permissionID int64) error
	GetPermissionByID(ctx context.Context, id int64) (*userDatamodel.Permission, error)
	ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error)
	RolePermissions(ctx context.Context) (map[string][]string, error)
}

// Engine makes every allow/deny decision in the portal. Callers never
// compare roles inline; they ask the engine.
type Engine struct {
	grants       GrantRepository
	audit        audit.Recorder
	queryTimeout time.Duration
	logger       *slog.Logger
}

func NewEngine(grants GrantRepository, recorder audit.Recorder, queryTimeout time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		grants:       grants,
		audit:        recorder,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// HasPermission decides whether user may exercise the named capability.
// Superadmin is granted unconditionally, table or no table; everyone else,
// Admin included, is table-driven. Store faults resolve to false and are
// logged: a permission check never raises.
func (e *Engine) HasPermission(ctx context.Context, user *auth.User, permissionName string) bool {
	if user == nil || user.Role == "" {
		return false
	}
	if user.Role == auth.RoleSuperadmin {
		return true
	}

	ctx, cancel := internal.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	granted, err := e.grants.HasGrant(ctx, user.Role, permissionName)
	if err != nil {
		e.logger.ErrorContext(ctx, "permission check failed, denying",
			"user_id", user.ID,
			"role", user.Role,
			"permission", permissionName,
			"error", err)
		return false
	}
	return granted
}

// CanActOnOwned generalizes the tool edit/delete rule: an "any" permission
// covers every resource, an "own" permission covers only resources the user
// created.
func (e *Engine) CanActOnOwned(ctx context.Context, user *auth.User, ownerID int64, anyPermission, ownPermission string) bool {
	if e.HasPermission(ctx, user, anyPermission) {
		return true
	}
	if e.HasPermission(ctx, user, ownPermission) && user != nil && user.ID == ownerID {
		return true
	}
	return false
}

// SetRolePermission grants or revokes a permission for a role. Only a
// Superadmin caller may mutate the matrix, and the Superadmin role itself is
// rejected as a target: its grant is implicit and never stored.
func (e *Engine) SetRolePermission(ctx context.Context, actor *auth.User, role auth.Role, permissionID int64, grant bool) error {
	if actor == nil || actor.Role != auth.RoleSuperadmin {
		return internal.ErrPermissionDenied
	}
	if !auth.ValidRole(role) {
		return internal.NewValidationError(fmt.Sprintf("unknown role %q", role), internal.ErrCodeInvalidRole)
	}
	if role == auth.RoleSuperadmin {
		return internal.NewValidationError("Superadmin permissions are implicit and cannot be edited", internal.ErrCodeInvalidRole)
	}

	ctx, cancel := internal.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	perm, err := e.grants.GetPermissionByID(ctx, permissionID)
	if err != nil {
		e.logger.ErrorContext(ctx, "set role permission: catalog lookup failed",
			"permission_id", permissionID, "error", err)
		return internal.ErrStoreError
	}

	if grant {
		err = e.grants.Grant(ctx, role, permissionID)
	} else {
		err = e.grants.Revoke(ctx, role, permissionID)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "set role permission: write failed",
			"role", role, "permission_id", permissionID, "grant", grant, "error", err)
		return internal.ErrStoreError
	}

	verb := "Revoked"
	if grant {
		verb = "Granted"
	}
	e.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("%s permission: %s", verb, perm.Name),
		fmt.Sprintf("Role: %s", role))

	return nil
}

// ListPermissions returns the permission catalog.
func (e *Engine) ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error) {
	ctx, cancel := internal.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	perms, err := e.grants.ListPermissions(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "list permissions failed", "error", err)
		return nil, internal.ErrStoreError
	}
	return perms, nil
}

// RolePermissionMatrix returns role -> granted permission names for the
// manage-permissions screen. Superadmin is omitted; it holds everything.
func (e *Engine) RolePermissionMatrix(ctx context.Context) (map[string][]string, error) {
	ctx, cancel := internal.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	matrix, err := e.grants.RolePermissions(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "role permission matrix load failed", "error", err)
		return nil, internal.ErrStoreError
	}
	return matrix, nil
}
