package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

// Repository executes the credential-store queries the auth service needs.
// All queries are parameterized; no caller-supplied SQL fragments.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	query := `SELECT id, name, email, password_hash, avatar, role, created_at, updated_at FROM users WHERE email = ?`

	row := r.db.WithContext(ctx).Raw(query, email).Row()
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	query := `SELECT id, name, email, password_hash, avatar, role, created_at, updated_at FROM users WHERE id = ?`

	row := r.db.WithContext(ctx).Raw(query, id).Row()
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetAssignedToolIDs joins through tools so assignments pointing at deleted
// tools are filtered out at read time.
func (r *Repository) GetAssignedToolIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT ut.tool_id
	          FROM user_tools ut
	          JOIN tools t ON t.id = ut.tool_id
	          WHERE ut.user_id = ?`

	rows, err := r.db.WithContext(ctx).Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) Create(ctx context.Context, u *userDatamodel.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	return r.db.WithContext(ctx).Create(u).Error
}
