package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/transport"
	"github.com/timeR3/ToolCTV/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("login failed", "error", err)

		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteError(w, appErr.StatusCode, appErr.Message)
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	expiresAt, err := h.Service.Sessions().Issue(w, user.ID, user.Email, user.Role)
	if err != nil {
		h.Logger.Error("login: session issue failed", "user_id", user.ID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user":       user,
		"expires_at": expiresAt,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Register(r.Context(), dto); err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if appErr, ok := internal.IsAppError(err); ok {
			h.WriteError(w, appErr.StatusCode, appErr.Message)
			return
		}
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// Logout clears the session cookie. Always succeeds, session or not.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Service.Sessions().Revoke(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the resolved current user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	h.WriteJSON(w, http.StatusOK, user)
}

// SessionMiddleware resolves the session cookie to a full user and stores it
// on the request context. Requests without a resolvable session get 401; a
// stale cookie is cleared opportunistically on the way out.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := h.Service.Sessions().FromRequest(r)
		if claims == nil {
			h.WriteError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		user := h.Service.CurrentUser(r.Context(), claims)
		if user == nil {
			h.Service.Sessions().Revoke(w)
			h.WriteError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
