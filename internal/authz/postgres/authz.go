package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/authz"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) authz.GrantRepository {
	return &Repository{db: db}
}

func (r *Repository) HasGrant(ctx context.Context, role auth.Role, permissionName string) (bool, error) {
	query := `SELECT COUNT(*)
	          FROM role_permissions rp
	          JOIN permissions p ON rp.permission_id = p.id
	          WHERE rp.role = ? AND p.name = ?`

	var count int64
	row := r.db.WithContext(ctx).Raw(query, string(role), permissionName).Row()
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Grant inserts the (role, permission) row if it is not already present.
func (r *Repository) Grant(ctx context.Context, role auth.Role, permissionID int64) error {
	var exists int
	row := r.db.WithContext(ctx).Raw(
		`SELECT 1 FROM role_permissions WHERE role = ? AND permission_id = ?`,
		string(role), permissionID).Row()
	if err := row.Scan(&exists); err == nil {
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	return r.db.WithContext(ctx).Exec(
		`INSERT INTO role_permissions (role, permission_id) VALUES (?, ?)`,
		string(role), permissionID).Error
}

// Revoke deletes the row; deleting an absent row is a no-op.
func (r *Repository) Revoke(ctx context.Context, role auth.Role, permissionID int64) error {
	return r.db.WithContext(ctx).Exec(
		`DELETE FROM role_permissions WHERE role = ? AND permission_id = ?`,
		string(role), permissionID).Error
}

func (r *Repository) GetPermissionByID(ctx context.Context, id int64) (*userDatamodel.Permission, error) {
	var p userDatamodel.Permission
	row := r.db.WithContext(ctx).Raw(
		`SELECT id, name, description FROM permissions WHERE id = ?`, id).Row()
	if err := row.Scan(&p.ID, &p.Name, &p.Description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListPermissions(ctx context.Context) ([]*userDatamodel.Permission, error) {
	rows, err := r.db.WithContext(ctx).Raw(
		`SELECT id, name, description FROM permissions ORDER BY name`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []*userDatamodel.Permission
	for rows.Next() {
		var p userDatamodel.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, &p)
	}
	return perms, rows.Err()
}

func (r *Repository) RolePermissions(ctx context.Context) (map[string][]string, error) {
	query := `SELECT rp.role, p.name
	          FROM role_permissions rp
	          JOIN permissions p ON rp.permission_id = p.id
	          ORDER BY rp.role, p.name`

	rows, err := r.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matrix := make(map[string][]string)
	for rows.Next() {
		var role, perm string
		if err := rows.Scan(&role, &perm); err != nil {
			return nil, err
		}
		matrix[role] = append(matrix[role], perm)
	}
	return matrix, rows.Err()
}
