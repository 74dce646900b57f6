package user

import (
	"time"

	"github.com/timeR3/ToolCTV/internal/auth"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

// User is the domain shape served to administrators. The password hash stays
// in the datamodel row and is never serialized.
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Avatar        string    `json:"avatar"`
	Role          auth.Role `json:"role"`
	AssignedTools []int64   `json:"assigned_tools"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func FromDataModel(row *userDatamodel.User) *User {
	return &User{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Avatar:        row.Avatar,
		Role:          auth.Role(row.Role),
		AssignedTools: []int64{},
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func FromDataModelWithTools(row *userDatamodel.User, toolIDs []int64) *User {
	u := FromDataModel(row)
	if toolIDs != nil {
		u.AssignedTools = toolIDs
	}
	return u
}
