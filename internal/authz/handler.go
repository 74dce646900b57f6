package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/transport"
	"github.com/timeR3/ToolCTV/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Engine:      engine,
	}
}

// SetRolePermissionDTO is the body of a matrix mutation.
type SetRolePermissionDTO struct {
	Role         string `json:"role"`
	PermissionID int64  `json:"permission_id"`
	Grant        bool   `json:"grant"`
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Engine.ListPermissions(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) RolePermissionMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := h.Engine.RolePermissionMatrix(r.Context())
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, matrix)
}

func (h *Handler) SetRolePermission(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var dto SetRolePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Engine.SetRolePermission(r.Context(), user, auth.Role(dto.Role), dto.PermissionID, dto.Grant); err != nil {
		h.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteError(w, appErr.StatusCode, appErr.Message)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
