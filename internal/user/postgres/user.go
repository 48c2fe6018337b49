package postgres

import (
	"database/sql"

	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal"
	"github.com/frahmantamala/document-workspace/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	query := `SELECT u.id, u.email, u.name, u.department_id, COALESCE(d.name, ''),
	                 u.is_active, u.last_login_at, u.created_at, u.updated_at
	          FROM users u
	          LEFT JOIN departments d ON u.department_id = d.id
	          WHERE u.id = ?`

	var u user.User
	var departmentID sql.NullInt64
	var lastLoginAt sql.NullTime

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &departmentID, &u.Department,
		&u.IsActive, &lastLoginAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	if departmentID.Valid {
		u.DepartmentID = &departmentID.Int64
	}
	if lastLoginAt.Valid {
		u.LastLoginAt = &lastLoginAt.Time
	}
	return &u, nil
}

// GetPermissions returns the coarse permission names the user holds through
// its department. Users without a department have none.
func (r *UserRepository) GetPermissions(userID int64) ([]string, error) {
	query := `SELECT p.name
	          FROM permissions p
	          JOIN department_permissions dp ON p.id = dp.permission_id
	          JOIN users u ON u.department_id = dp.department_id
	          WHERE u.id = ?`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}
