package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
	"github.com/timeR3/ToolCTV/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) user.RepositoryAPI {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, avatar, role, created_at, updated_at`

func scanUser(row *sql.Row) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT ` + userColumns + ` FROM users ORDER BY id`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*userDatamodel.User
	for rows.Next() {
		var u userDatamodel.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return scanUser(r.db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id).Row())
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return scanUser(r.db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email).Row())
}

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

func (r *Repository) UpdateProfile(ctx context.Context, id int64, name, email, avatar string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users SET name = ?, email = ?, avatar = ?, updated_at = ? WHERE id = ?`,
		name, email, avatar, time.Now(), id).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), id).Error
}

func (r *Repository) UpdateRole(ctx context.Context, id int64, role string) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now(), id).Error
}

// ReplaceAssignedTools rewrites the assignment set in a single transaction
// so readers never observe the intermediate empty state.
func (r *Repository) ReplaceAssignedTools(ctx context.Context, userID int64, toolIDs []int64, assignedBy int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_tools WHERE user_id = ?`, userID).Error; err != nil {
			return err
		}
		for _, toolID := range toolIDs {
			if err := tx.Exec(
				`INSERT INTO user_tools (user_id, tool_id, assigned_by, created_at) VALUES (?, ?, ?, ?)`,
				userID, toolID, assignedBy, time.Now()).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
