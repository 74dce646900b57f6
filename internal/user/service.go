package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/audit"
	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/authz"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetAssignedToolIDs(ctx context.Context, userID int64) ([]int64, error)
	UpdateProfile(ctx context.Context, id int64, name, email, avatar string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	ReplaceAssignedTools(ctx context.Context, userID int64, toolIDs []int64, assignedBy int64) error
}

// Service implements the admin and self-service user operations. Coarse
// page-level access is gated at the router; mutations re-check the fine
// permission here so no caller can bypass the engine.
type Service struct {
	repo         RepositoryAPI
	engine       *authz.Engine
	audit        audit.Recorder
	queryTimeout time.Duration
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, engine *authz.Engine, recorder audit.Recorder, queryTimeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		engine:       engine,
		audit:        recorder,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list users failed", "error", err)
		return nil, internal.ErrStoreError
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		toolIDs, err := s.repo.GetAssignedToolIDs(ctx, row.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "list users: assigned tools lookup failed", "user_id", row.ID, "error", err)
			return nil, internal.ErrStoreError
		}
		users = append(users, FromDataModelWithTools(row, toolIDs))
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, internal.ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "get user failed", "user_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	toolIDs, err := s.repo.GetAssignedToolIDs(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "get user: assigned tools lookup failed", "user_id", id, "error", err)
		return nil, internal.ErrStoreError
	}
	return FromDataModelWithTools(row, toolIDs), nil
}

// UpdateProfile lets a user edit their own name/email/avatar and optionally
// rotate the password. Editing someone else requires edit_any_user.
func (s *Service) UpdateProfile(ctx context.Context, actor *auth.User, targetID int64, dto UpdateProfileDTO, hashPassword func(string) (string, error)) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if actor == nil {
		return internal.ErrPermissionDenied
	}
	if actor.ID != targetID && !s.engine.HasPermission(ctx, actor, authz.PermEditAnyUser) {
		return internal.ErrPermissionDenied
	}

	email := auth.NormalizeEmail(dto.Email)

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if other, err := s.repo.GetByEmail(ctx, email); err == nil && other.ID != targetID {
		return internal.ErrEmailTaken
	} else if err != nil && !errors.Is(err, auth.ErrNotFound) {
		s.logger.ErrorContext(ctx, "update profile: email lookup failed", "email", email, "error", err)
		return internal.ErrStoreError
	}

	if err := s.repo.UpdateProfile(ctx, targetID, dto.Name, email, dto.Avatar); err != nil {
		s.logger.ErrorContext(ctx, "update profile failed", "user_id", targetID, "error", err)
		return internal.ErrStoreError
	}

	if dto.Password != "" {
		hash, err := hashPassword(dto.Password)
		if err != nil {
			s.logger.ErrorContext(ctx, "update profile: password hash failed", "error", err)
			return internal.ErrStoreError
		}
		if err := s.repo.UpdatePassword(ctx, targetID, hash); err != nil {
			s.logger.ErrorContext(ctx, "update profile: password update failed", "user_id", targetID, "error", err)
			return internal.ErrStoreError
		}
	}

	if actor.ID != targetID {
		s.audit.Record(ctx, actor.ID, actor.Name,
			fmt.Sprintf("Updated user profile: %s", dto.Name),
			fmt.Sprintf("User ID: %d", targetID))
	}

	return nil
}

// UpdateRole changes a user's role. Requires change_user_roles; the new role
// must be one of the three enumerated values.
func (s *Service) UpdateRole(ctx context.Context, actor *auth.User, targetID int64, role auth.Role) error {
	if !s.engine.HasPermission(ctx, actor, authz.PermChangeUserRoles) {
		return internal.ErrPermissionDenied
	}
	if !auth.ValidRole(role) {
		return internal.NewValidationError(fmt.Sprintf("unknown role %q", role), internal.ErrCodeInvalidRole)
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return internal.ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "update role: lookup failed", "user_id", targetID, "error", err)
		return internal.ErrStoreError
	}

	if err := s.repo.UpdateRole(ctx, targetID, string(role)); err != nil {
		s.logger.ErrorContext(ctx, "update role failed", "user_id", targetID, "error", err)
		return internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Updated user role: %s", target.Name),
		fmt.Sprintf("Role changed from %s to %s", target.Role, role))

	return nil
}

// ReplaceAssignedTools swaps a user's assignment set atomically. The
// delete-then-insert runs inside one transaction so no reader observes the
// user with zero tools mid-operation.
func (s *Service) ReplaceAssignedTools(ctx context.Context, actor *auth.User, targetID int64, toolIDs []int64) error {
	if !s.engine.HasPermission(ctx, actor, authz.PermAssignTools) {
		return internal.ErrPermissionDenied
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return internal.ErrUserNotFound
		}
		s.logger.ErrorContext(ctx, "assign tools: lookup failed", "user_id", targetID, "error", err)
		return internal.ErrStoreError
	}

	// Deduplicate: assignedTools is a set.
	seen := make(map[int64]struct{}, len(toolIDs))
	unique := make([]int64, 0, len(toolIDs))
	for _, id := range toolIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if err := s.repo.ReplaceAssignedTools(ctx, targetID, unique, actor.ID); err != nil {
		s.logger.ErrorContext(ctx, "assign tools failed", "user_id", targetID, "error", err)
		return internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Updated tool assignments: %s", target.Name),
		fmt.Sprintf("Assigned %d tools", len(unique)))

	return nil
}
