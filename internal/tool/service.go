package tool

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
	toolDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/tool"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*toolDatamodel.Tool, error)
	GetByID(ctx context.Context, id int64) (*toolDatamodel.Tool, error)
	Create(ctx context.Context, t *toolDatamodel.Tool) error
	Update(ctx context.Context, t *toolDatamodel.Tool) error
	Delete(ctx context.Context, id int64) error
	CreatorName(ctx context.Context, userID int64) (string, error)
}

// Service implements the toolbox catalog. Edit and delete go through the
// ownership rule; nothing here compares roles directly.
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

// ListForUser returns the tools the caller's dashboard shows: holders of
// access_manage_tools see the full catalog, everyone else sees the enabled
// tools in their assignment set. Dangling assignment ids drop out naturally
// because the set is intersected with stored rows.
func (s *Service) ListForUser(ctx context.Context, caller *auth.User) ([]*Tool, error) {
	if caller == nil {
		return nil, internal.ErrPermissionDenied
	}

	seeAll := s.engine.HasPermission(ctx, caller, authz.PermAccessManageTools)

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list tools failed", "error", err)
		return nil, internal.ErrStoreError
	}

	tools := make([]*Tool, 0, len(rows))
	for _, row := range rows {
		if !seeAll {
			if !row.Enabled || !caller.IsAssignedTool(row.ID) {
				continue
			}
		}
		tools = append(tools, FromDataModel(row))
	}
	return tools, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Tool, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, internal.ErrToolNotFound
		}
		s.logger.ErrorContext(ctx, "get tool failed", "tool_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	t := FromDataModel(row)
	if name, err := s.repo.CreatorName(ctx, row.CreatedByUserID); err == nil {
		t.CreatedByUser = name
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto ToolDTO) (*Tool, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, internal.ErrPermissionDenied
	}

	enabled := true
	if dto.Enabled != nil {
		enabled = *dto.Enabled
	}

	now := time.Now()
	row := &toolDatamodel.Tool{
		Name:            dto.Name,
		Description:     dto.Description,
		URL:             dto.URL,
		Icon:            dto.Icon,
		IconURL:         dto.IconURL,
		Enabled:         enabled,
		Category:        dto.Category,
		CreatedByUserID: actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create tool failed", "name", dto.Name, "error", err)
		return nil, internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Created tool: %s", row.Name),
		fmt.Sprintf("ID: %d", row.ID))

	return FromDataModel(row), nil
}

// Update rewrites a tool. Allowed with edit_any_tool, or with edit_own_tool
// when the actor created the tool.
func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto ToolDTO) (*Tool, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, internal.ErrToolNotFound
		}
		s.logger.ErrorContext(ctx, "update tool: lookup failed", "tool_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	if !s.engine.CanActOnOwned(ctx, actor, row.CreatedByUserID, authz.PermEditAnyTool, authz.PermEditOwnTool) {
		return nil, internal.ErrPermissionDenied
	}

	row.Name = dto.Name
	row.Description = dto.Description
	row.URL = dto.URL
	row.Icon = dto.Icon
	row.IconURL = dto.IconURL
	if dto.Enabled != nil {
		row.Enabled = *dto.Enabled
	}
	row.Category = dto.Category
	row.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "update tool failed", "tool_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Updated tool: %s", row.Name),
		fmt.Sprintf("ID: %d", row.ID))

	return FromDataModel(row), nil
}

// Delete removes a tool under the same ownership rule as Update.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return internal.ErrToolNotFound
		}
		s.logger.ErrorContext(ctx, "delete tool: lookup failed", "tool_id", id, "error", err)
		return internal.ErrStoreError
	}

	if !s.engine.CanActOnOwned(ctx, actor, row.CreatedByUserID, authz.PermDeleteAnyTool, authz.PermDeleteOwnTool) {
		return internal.ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "delete tool failed", "tool_id", id, "error", err)
		return internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Deleted tool: %s", row.Name),
		fmt.Sprintf("ID: %d", id))

	return nil
}
