package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timeR3/ToolCTV/internal"
	"github.com/timeR3/ToolCTV/internal/audit"
	"github.com/timeR3/ToolCTV/internal/auth"
	categoryDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/category"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*categoryDatamodel.ToolCategory, error)
	GetByID(ctx context.Context, id int64) (*categoryDatamodel.ToolCategory, error)
	GetByName(ctx context.Context, name string) (*categoryDatamodel.ToolCategory, error)
	Create(ctx context.Context, c *categoryDatamodel.ToolCategory) error
	Update(ctx context.Context, c *categoryDatamodel.ToolCategory) error
	// DeleteAndReassign removes the category and moves its tools to the
	// fallback category in the same transaction.
	DeleteAndReassign(ctx context.Context, id int64, oldName, fallback string) error
}

// Service manages tool categories. Route-level checks gate every mutation
// behind access_manage_categories, so the service only validates input.
type Service struct {
	repo         RepositoryAPI
	audit        audit.Recorder
	queryTimeout time.Duration
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, recorder audit.Recorder, queryTimeout time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		audit:        recorder,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Category, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list categories failed", "error", err)
		return nil, internal.ErrStoreError
	}

	categories := make([]*Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, FromDataModel(row))
	}
	return categories, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Category, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, internal.ErrCategoryNotFound
		}
		s.logger.ErrorContext(ctx, "get category failed", "category_id", id, "error", err)
		return nil, internal.ErrStoreError
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, actor *auth.User, dto CategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, internal.ErrPermissionDenied
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.repo.GetByName(ctx, dto.Name); err == nil {
		return nil, ValidationError{Msg: "a category with this name already exists"}
	} else if !errors.Is(err, auth.ErrNotFound) {
		s.logger.ErrorContext(ctx, "create category: name check failed", "name", dto.Name, "error", err)
		return nil, internal.ErrStoreError
	}

	enabled := true
	if dto.Enabled != nil {
		enabled = *dto.Enabled
	}

	now := time.Now()
	row := &categoryDatamodel.ToolCategory{
		Name:        dto.Name,
		Description: dto.Description,
		Enabled:     enabled,
		Icon:        dto.Icon,
		IconURL:     dto.IconURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "create category failed", "name", dto.Name, "error", err)
		return nil, internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Created category: %s", row.Name),
		fmt.Sprintf("ID: %d", row.ID))

	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id int64, dto CategoryDTO) (*Category, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, internal.ErrPermissionDenied
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, internal.ErrCategoryNotFound
		}
		s.logger.ErrorContext(ctx, "update category: lookup failed", "category_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	if dto.Name != row.Name {
		if _, err := s.repo.GetByName(ctx, dto.Name); err == nil {
			return nil, ValidationError{Msg: "a category with this name already exists"}
		} else if !errors.Is(err, auth.ErrNotFound) {
			s.logger.ErrorContext(ctx, "update category: name check failed", "name", dto.Name, "error", err)
			return nil, internal.ErrStoreError
		}
	}

	row.Name = dto.Name
	row.Description = dto.Description
	if dto.Enabled != nil {
		row.Enabled = *dto.Enabled
	}
	row.Icon = dto.Icon
	row.IconURL = dto.IconURL
	row.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "update category failed", "category_id", id, "error", err)
		return nil, internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Updated category: %s", row.Name),
		fmt.Sprintf("ID: %d", row.ID))

	return FromDataModel(row), nil
}

// Delete removes a category and reassigns its tools to General so no tool
// is left pointing at a name that no longer exists. The fallback category
// itself cannot be deleted.
func (s *Service) Delete(ctx context.Context, actor *auth.User, id int64) error {
	if actor == nil {
		return internal.ErrPermissionDenied
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return internal.ErrCategoryNotFound
		}
		s.logger.ErrorContext(ctx, "delete category: lookup failed", "category_id", id, "error", err)
		return internal.ErrStoreError
	}

	if row.Name == FallbackCategoryName {
		return ValidationError{Msg: "the General category cannot be deleted"}
	}

	if err := s.repo.DeleteAndReassign(ctx, id, row.Name, FallbackCategoryName); err != nil {
		s.logger.ErrorContext(ctx, "delete category failed", "category_id", id, "error", err)
		return internal.ErrStoreError
	}

	s.audit.Record(ctx, actor.ID, actor.Name,
		fmt.Sprintf("Deleted category: %s", row.Name),
		fmt.Sprintf("ID: %d", id))

	return nil
}
