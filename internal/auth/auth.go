package auth

import (
	"context"
	"errors"
)

// Role is a coarse identity tag, not a numeric privilege level: Admin and
// Superadmin diverge on individual permissions, so ordering comparisons are
// never valid. The one hard rule is that Superadmin holds every permission
// implicitly.
type Role string

const (
	RoleUser       Role = "User"
	RoleAdmin      Role = "Admin"
	RoleSuperadmin Role = "Superadmin"
)

// ValidRole reports whether r is one of the three enumerated roles.
func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperadmin
}

// User is the resolved identity of the caller: the session claims joined
// with the stored account row and its assigned tool ids. The password hash
// never appears here.
type User struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Avatar        string  `json:"avatar"`
	Role          Role    `json:"role"`
	AssignedTools []int64 `json:"assigned_tools"`
}

// IsAssignedTool reports whether the tool id is in the user's assignment set.
func (u *User) IsAssignedTool(toolID int64) bool {
	for _, id := range u.AssignedTools {
		if id == toolID {
			return true
		}
	}
	return false
}

// Typed decode failures from the session token codec. The session manager
// collapses all of them to "no session"; nothing above it ever sees these.
var (
	ErrTokenMalformed = errors.New("session token malformed")
	ErrBadSignature   = errors.New("session token signature mismatch")
	ErrTokenExpired   = errors.New("session token expired")
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type ctxKey string

const contextUserKey ctxKey = "authUser"

// ContextWithUser stores the resolved caller on the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, contextUserKey, u)
}

// UserFromContext retrieves the resolved caller, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(contextUserKey).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}
