package user

import "time"

// User is the persistence shape of a portal account. PasswordHash never
// crosses the auth boundary.
type User struct {
	ID           int64     `db:"id" gorm:"column:id;primaryKey"`
	Name         string    `db:"name" gorm:"column:name"`
	Email        string    `db:"email" gorm:"column:email;uniqueIndex"`
	PasswordHash string    `db:"password_hash" gorm:"column:password_hash"`
	Avatar       string    `db:"avatar" gorm:"column:avatar"`
	Role         string    `db:"role" gorm:"column:role"`
	CreatedAt    time.Time `db:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `db:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserTool is a row of the user_tools assignment relation.
type UserTool struct {
	ID         int64     `db:"id" gorm:"column:id;primaryKey"`
	UserID     int64     `db:"user_id" gorm:"column:user_id"`
	ToolID     int64     `db:"tool_id" gorm:"column:tool_id"`
	AssignedBy *int64    `db:"assigned_by" gorm:"column:assigned_by"`
	CreatedAt  time.Time `db:"created_at" gorm:"column:created_at"`
}

func (UserTool) TableName() string {
	return "user_tools"
}

// Permission is a named capability from the permissions catalog.
type Permission struct {
	ID          int64     `db:"id" gorm:"column:id;primaryKey"`
	Name        string    `db:"name" gorm:"column:name;uniqueIndex"`
	Description string    `db:"description" gorm:"column:description"`
	CreatedAt   time.Time `db:"created_at" gorm:"column:created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RolePermission is a row of the role_permissions grant relation. Superadmin
// rows are never stored; that role is granted implicitly.
type RolePermission struct {
	ID           int64     `db:"id" gorm:"column:id;primaryKey"`
	Role         string    `db:"role" gorm:"column:role"`
	PermissionID int64     `db:"permission_id" gorm:"column:permission_id"`
	CreatedAt    time.Time `db:"created_at" gorm:"column:created_at"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}
