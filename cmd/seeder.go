package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"folder_permissions", "folders", "department_permissions", "users", "permissions", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		departments := []struct {
			Name string
			Desc string
		}{
			{"Operations", "Platform operations and administration"},
			{"Engineering", "Product engineering"},
			{"Finance", "Finance and accounting"},
		}
		for _, d := range departments {
			var id int64
			if err := db.Raw("SELECT id FROM departments WHERE name = ?", d.Name).Row().Scan(&id); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO departments (name, description, is_active, created_at, updated_at) VALUES (?, ?, true, now(), now())", d.Name, d.Desc).Error; err != nil {
				log.Fatalf("failed to insert department %s: %v", d.Name, err)
			}
			fmt.Println("Seeded department:", d.Name)
		}

		permissions := []struct {
			Name string
			Desc string
		}{
			{"admin", "full administrator"},
			{"manage_folders", "Can manage any folder regardless of ACLs"},
			{"create_folders", "Can create root folders"},
			{"manage_departments", "Can manage departments"},
		}
		for _, p := range permissions {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE name = ?", p.Name).Row().Scan(&pid); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO permissions (name, description, created_at) VALUES (?, ?, now())", p.Name, p.Desc).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Name, err)
			}
		}

		var operationsID int64
		if err := db.Raw("SELECT id FROM departments WHERE name = 'Operations'").Row().Scan(&operationsID); err != nil {
			log.Fatalf("failed to lookup Operations department: %v", err)
		}
		var engineeringID int64
		if err := db.Raw("SELECT id FROM departments WHERE name = 'Engineering'").Row().Scan(&engineeringID); err != nil {
			log.Fatalf("failed to lookup Engineering department: %v", err)
		}

		grantToDepartment := func(deptID int64, permNames ...string) {
			for _, name := range permNames {
				var pid int64
				if err := db.Raw("SELECT id FROM permissions WHERE name = ?", name).Row().Scan(&pid); err != nil {
					log.Fatalf("permission not found %s: %v", name, err)
				}
				var exists int
				if err := db.Raw("SELECT 1 FROM department_permissions WHERE department_id = ? AND permission_id = ?", deptID, pid).Row().Scan(&exists); err == nil {
					continue
				}
				if err := db.Exec("INSERT INTO department_permissions (department_id, permission_id, granted_by, created_at) VALUES (?, ?, NULL, now())", deptID, pid).Error; err != nil {
					log.Fatalf("failed to grant %s to department %d: %v", name, deptID, err)
				}
			}
		}
		grantToDepartment(operationsID, "admin", "manage_folders", "create_folders", "manage_departments")
		grantToDepartment(engineeringID, "create_folders")

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser := func(email, name string, deptID int64) int64 {
			var id int64
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err == nil {
				fmt.Println("user already exists:", email)
				return id
			}
			if err := db.Exec("INSERT INTO users (email, name, password_hash, department_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())", email, name, string(hash), deptID).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", email, err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", email).Row().Scan(&id); err != nil {
				log.Fatalf("failed to lookup user %s: %v", email, err)
			}
			fmt.Println("Seeded user:", email)
			return id
		}

		adminID := seedUser("admin@workspace.local", "Workspace Admin", operationsID)
		memberID := seedUser("member@workspace.local", "Engineering Member", engineeringID)

		seedFolder := func(name string, parentID *int64, inherit bool, createdBy int64) int64 {
			var id int64
			if err := db.Raw("SELECT id FROM folders WHERE name = ? AND is_active = true", name).Row().Scan(&id); err == nil {
				return id
			}
			if err := db.Exec("INSERT INTO folders (name, parent_folder_id, access_level, inherit_permissions, created_by, is_active, created_at, updated_at) VALUES (?, ?, 'private', ?, ?, true, now(), now())", name, parentID, inherit, createdBy).Error; err != nil {
				log.Fatalf("failed to insert folder %s: %v", name, err)
			}
			if err := db.Raw("SELECT id FROM folders WHERE name = ? AND is_active = true", name).Row().Scan(&id); err != nil {
				log.Fatalf("failed to lookup folder %s: %v", name, err)
			}
			fmt.Println("Seeded folder:", name)
			return id
		}

		rootID := seedFolder("Workspace Root", nil, true, adminID)
		draftsID := seedFolder("Drafts", &rootID, true, adminID)
		seedFolder("Q3 Reports", &draftsID, true, adminID)

		var exists int
		if err := db.Raw("SELECT 1 FROM folder_permissions WHERE folder_id = ? AND department_id = ? AND permission_type = 'read' AND is_active = true", rootID, engineeringID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO folder_permissions (folder_id, department_id, permission_type, granted_by, granted_at, is_active) VALUES (?, ?, 'read', ?, now(), true)", rootID, engineeringID, adminID).Error; err != nil {
				log.Fatalf("failed to grant read on root folder: %v", err)
			}
			fmt.Println("Granted Engineering read on Workspace Root")
		}
		if err := db.Raw("SELECT 1 FROM folder_permissions WHERE folder_id = ? AND user_id = ? AND permission_type = 'write' AND is_active = true", draftsID, memberID).Row().Scan(&exists); err != nil {
			if err := db.Exec("INSERT INTO folder_permissions (folder_id, user_id, permission_type, granted_by, granted_at, is_active) VALUES (?, ?, 'write', ?, now(), true)", draftsID, memberID, adminID).Error; err != nil {
				log.Fatalf("failed to grant write on drafts folder: %v", err)
			}
			fmt.Println("Granted member write on Drafts")
		}

		fmt.Println("Seeding complete")
	},
}
