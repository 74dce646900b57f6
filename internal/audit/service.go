package audit

import (
	"context"
	"log/slog"
	"time"

	auditDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/audit"
)

type RepositoryAPI interface {
	Insert(ctx context.Context, entry *auditDatamodel.LogEntry) error
	List(ctx context.Context, limit int) ([]*auditDatamodel.LogEntry, error)
}

// Service writes and reads the audit trail. Record swallows storage errors
// after logging them: a failed audit write must not abort the action that
// triggered it.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, actorID int64, actorName, action, details string) {
	entry := &auditDatamodel.LogEntry{
		ActorUserID: actorID,
		ActorName:   actorName,
		Action:      action,
		Details:     details,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "audit write failed",
			"actor_id", actorID,
			"action", action,
			"error", err)
	}
}

const defaultListLimit = 200

func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		s.logger.ErrorContext(ctx, "audit list failed", "error", err)
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, FromDataModel(row))
	}
	return entries, nil
}
