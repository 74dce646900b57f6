package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/audit"
	auditDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/audit"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) audit.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, entry *auditDatamodel.LogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) List(ctx context.Context, limit int) ([]*auditDatamodel.LogEntry, error) {
	query := `SELECT id, actor_user_id, actor_name, action, details, created_at
	          FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.WithContext(ctx).Raw(query, limit).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*auditDatamodel.LogEntry
	for rows.Next() {
		var e auditDatamodel.LogEntry
		if err := rows.Scan(&e.ID, &e.ActorUserID, &e.ActorName, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
