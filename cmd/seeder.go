package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/timeR3/ToolCTV/internal/auth"
	"github.com/timeR3/ToolCTV/internal/authz"
	"github.com/timeR3/ToolCTV/internal/category"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the permission catalog and starter data",
	Long:  `Seed the permission catalog, default role grants, the superadmin account and starter categories. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"role_permissions", "user_tools", "audit_logs", "tools", "categories", "permissions"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing seed data")
		}

		seedPermissions(db)
		seedRoleGrants(db)
		seedSuperadmin(db, cfg.Security.BCryptCost)
		seedCategories(db)
		seedTools(db)

		fmt.Println("Seeding complete")
	},
}

var permissionCatalog = []struct {
	Name string
	Desc string
}{
	{authz.PermAccessManageUsers, "Can open the user management screen"},
	{authz.PermAccessManageTools, "Can open the tool management screen"},
	{authz.PermAccessManageCategories, "Can open the category management screen"},
	{authz.PermAccessManagePermissions, "Can open the permission matrix screen"},
	{authz.PermAccessAuditLog, "Can view the audit log"},
	{authz.PermAssignTools, "Can assign tools to users"},
	{authz.PermChangeUserRoles, "Can change user roles"},
	{authz.PermEditAnyUser, "Can edit any user profile"},
	{authz.PermEditAnyTool, "Can edit any tool"},
	{authz.PermEditOwnTool, "Can edit tools they created"},
	{authz.PermDeleteAnyTool, "Can delete any tool"},
	{authz.PermDeleteOwnTool, "Can delete tools they created"},
}

func seedPermissions(db *gorm.DB) {
	for _, p := range permissionCatalog {
		var pid int64
		if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
			log.Fatalf("failed to insert permission %s: %v", p.Name, err)
		}
	}
	fmt.Println("Seeded permission catalog")
}

// defaultRoleGrants gives admin the full catalog and regular users the
// own-tool permissions. Superadmin never gets rows: its access is implicit.
var defaultRoleGrants = map[auth.Role][]string{
	auth.RoleAdmin: {
		authz.PermAccessManageUsers,
		authz.PermAccessManageTools,
		authz.PermAccessManageCategories,
		authz.PermAccessManagePermissions,
		authz.PermAccessAuditLog,
		authz.PermAssignTools,
		authz.PermChangeUserRoles,
		authz.PermEditAnyUser,
		authz.PermEditAnyTool,
		authz.PermEditOwnTool,
		authz.PermDeleteAnyTool,
		authz.PermDeleteOwnTool,
	},
	auth.RoleUser: {
		authz.PermEditOwnTool,
		authz.PermDeleteOwnTool,
	},
}

func seedRoleGrants(db *gorm.DB) {
	for role, perms := range defaultRoleGrants {
		for _, permName := range perms {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", permName).Row().Scan(&pid); err != nil {
				log.Fatalf("permission not found after insert %s: %v", permName, err)
			}

			var exists int
			if err := db.Raw("SELECT 1 FROM role_permissions WHERE role = ? AND permission_id = ?", string(role), pid).Row().Scan(&exists); err == nil {
				continue
			}

			if err := db.Exec("INSERT INTO role_permissions (role, permission_id, created_at) VALUES (?, ?, now())", string(role), pid).Error; err != nil {
				log.Fatalf("failed to grant %s to role %s: %v", permName, role, err)
			}
		}
	}
	fmt.Println("Seeded default role grants")
}

func seedSuperadmin(db *gorm.DB, bcryptCost int) {
	email := "superadmin@toolctv.local"

	var exists int
	if err := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row().Scan(&exists); err == nil {
		fmt.Println("superadmin already exists:", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash superadmin password: %v", err)
	}

	if err := db.Exec("INSERT INTO users (email, name, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, now(), now())",
		email, "Superadmin", string(hash), string(auth.RoleSuperadmin)).Error; err != nil {
		log.Fatalf("failed to insert superadmin: %v", err)
	}
	fmt.Println("Seeded superadmin user:", email)
}

func seedCategories(db *gorm.DB) {
	categories := []struct {
		Name string
		Desc string
	}{
		{category.FallbackCategoryName, "Uncategorized tools"},
		{"Monitoring", "Dashboards and observability tools"},
		{"Development", "Build, CI and code tooling"},
	}

	for _, c := range categories {
		var exists int
		if err := db.Raw("SELECT 1 FROM categories WHERE name = ?", c.Name).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO categories (name, description, enabled, created_at, updated_at) VALUES (?, ?, true, now(), now())", c.Name, c.Desc).Error; err != nil {
			log.Fatalf("failed to insert category %s: %v", c.Name, err)
		}
	}
	fmt.Println("Seeded starter categories")
}

func seedTools(db *gorm.DB) {
	var ownerID int64
	if err := db.Raw("SELECT id FROM users WHERE email = ?", "superadmin@toolctv.local").Row().Scan(&ownerID); err != nil {
		log.Fatalf("superadmin must exist before seeding tools: %v", err)
	}

	tools := []struct {
		Name     string
		Desc     string
		URL      string
		Category string
	}{
		{"Grafana", "Metrics dashboards", "https://grafana.internal", "Monitoring"},
		{"Jenkins", "CI pipelines", "https://jenkins.internal", "Development"},
	}

	for _, t := range tools {
		var exists int
		if err := db.Raw("SELECT 1 FROM tools WHERE name = ?", t.Name).Row().Scan(&exists); err == nil {
			continue
		}
		if err := db.Exec("INSERT INTO tools (name, description, url, enabled, category, created_by_user_id, created_at, updated_at) VALUES (?, ?, ?, true, ?, ?, now(), now())",
			t.Name, t.Desc, t.URL, t.Category, ownerID).Error; err != nil {
			log.Fatalf("failed to insert tool %s: %v", t.Name, err)
		}
	}
	fmt.Println("Seeded starter tools")
}
