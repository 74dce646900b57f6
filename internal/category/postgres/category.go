package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/category"
	categoryDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/category"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) category.RepositoryAPI {
	return &Repository{db: db}
}

const categoryColumns = `id, name, description, enabled, icon, icon_url, created_at, updated_at`

func (r *Repository) GetAll(ctx context.Context) ([]*categoryDatamodel.ToolCategory, error) {
	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*categoryDatamodel.ToolCategory
	for rows.Next() {
		var c categoryDatamodel.ToolCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Enabled, &c.Icon, &c.IconURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*categoryDatamodel.ToolCategory, error) {
	return r.scanOne(r.db.WithContext(ctx).Raw(
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
}

func (r *Repository) GetByName(ctx context.Context, name string) (*categoryDatamodel.ToolCategory, error) {
	return r.scanOne(r.db.WithContext(ctx).Raw(
		`SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name))
}

func (r *Repository) Create(ctx context.Context, c *categoryDatamodel.ToolCategory) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *Repository) Update(ctx context.Context, c *categoryDatamodel.ToolCategory) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE categories SET name = ?, description = ?, enabled = ?, icon = ?, icon_url = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, c.Enabled, c.Icon, c.IconURL, c.UpdatedAt, c.ID).Error
}

// DeleteAndReassign moves the category's tools to the fallback name before
// dropping the row, all inside one transaction.
func (r *Repository) DeleteAndReassign(ctx context.Context, id int64, oldName, fallback string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`UPDATE tools SET category = ? WHERE category = ?`, fallback, oldName).Error; err != nil {
			return err
		}
		return tx.Exec(`DELETE FROM categories WHERE id = ?`, id).Error
	})
}

func (r *Repository) scanOne(q *gorm.DB) (*categoryDatamodel.ToolCategory, error) {
	var c categoryDatamodel.ToolCategory
	row := q.Row()
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Enabled, &c.Icon, &c.IconURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
