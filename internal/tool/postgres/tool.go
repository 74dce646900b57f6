package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	toolDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/tool"
	"github.com/timeR3/ToolCTV/internal/tool"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) tool.RepositoryAPI {
	return &Repository{db: db}
}

const toolColumns = `id, name, description, url, icon, icon_url, enabled, category, created_by_user_id, created_at, updated_at`

func (r *Repository) GetAll(ctx context.Context) ([]*toolDatamodel.Tool, error) {
	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT ` + toolColumns + ` FROM tools ORDER BY created_at DESC`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []*toolDatamodel.Tool
	for rows.Next() {
		var t toolDatamodel.Tool
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.URL, &t.Icon, &t.IconURL, &t.Enabled, &t.Category, &t.CreatedByUserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tools = append(tools, &t)
	}
	return tools, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*toolDatamodel.Tool, error) {
	var t toolDatamodel.Tool
	row := r.db.WithContext(ctx).Raw(
		`SELECT `+toolColumns+` FROM tools WHERE id = ?`, id).Row()
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.URL, &t.Icon, &t.IconURL, &t.Enabled, &t.Category, &t.CreatedByUserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, t *toolDatamodel.Tool) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repository) Update(ctx context.Context, t *toolDatamodel.Tool) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tools SET name = ?, description = ?, url = ?, icon = ?, icon_url = ?, enabled = ?, category = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Description, t.URL, t.Icon, t.IconURL, t.Enabled, t.Category, t.UpdatedAt, t.ID).Error
}

// Delete removes the tool and its assignment rows together.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_tools WHERE tool_id = ?`, id).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM tools WHERE id = ?`, id).Error
	})
}

func (r *Repository) CreatorName(ctx context.Context, userID int64) (string, error) {
	var name string
	row := r.db.WithContext(ctx).Raw(`SELECT name FROM users WHERE id = ?`, userID).Row()
	if err := row.Scan(&name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", auth.ErrNotFound
		}
		return "", err
	}
	return name, nil
}
