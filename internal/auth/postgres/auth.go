package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/frahmantamala/document-workspace/internal/auth"
)

// uniqueViolation reports whether err is the store's unique-constraint error.
func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var userID int64
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", 0, auth.ErrInvalidCredentials
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetPasswordForUserID(userID int64) (string, error) {
	var passwordHash string
	query := `SELECT password_hash FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", auth.ErrInvalidCredentials
		}
		return "", err
	}
	return passwordHash, nil
}

// GetUserIDByEmail returns 0 when no active user has the email.
func (r *Repository) GetUserIDByEmail(email string) (int64, error) {
	var userID int64
	query := `SELECT id FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	return userID, nil
}

func (r *Repository) CreateUser(email, name, passwordHash string, departmentID *int64) (int64, error) {
	var userID int64
	query := `INSERT INTO users (email, name, password_hash, department_id, is_active, created_at, updated_at)
	          VALUES (?, ?, ?, ?, true, now(), now()) RETURNING id`

	row := r.db.Raw(query, email, name, passwordHash, departmentID).Row()
	if err := row.Scan(&userID); err != nil {
		// racing registrations land on the users.email unique constraint
		if uniqueViolation(err) {
			return 0, auth.ErrDuplicateEmail
		}
		return 0, err
	}
	return userID, nil
}

func (r *Repository) UpdatePassword(userID int64, passwordHash string) error {
	return r.db.Exec(`UPDATE users SET password_hash = ?, updated_at = now() WHERE id = ?`, passwordHash, userID).Error
}

func (r *Repository) UpdateLastLogin(userID int64) error {
	return r.db.Exec(`UPDATE users SET last_login_at = ?, updated_at = now() WHERE id = ?`, time.Now(), userID).Error
}

// GetUserWithPermissions loads the user and the coarse permission set derived
// from its department.
func (r *Repository) GetUserWithPermissions(userID int64) (*auth.User, error) {
	var user auth.User

	query := `SELECT id, email, department_id FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	var departmentID sql.NullInt64
	if err := row.Scan(&user.ID, &user.Email, &departmentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrUserInactive
		}
		return nil, err
	}
	if departmentID.Valid {
		user.DepartmentID = &departmentID.Int64
	}

	if user.DepartmentID == nil {
		return &user, nil
	}

	permQuery := `SELECT p.name
	             FROM permissions p
	             JOIN department_permissions dp ON p.id = dp.permission_id
	             WHERE dp.department_id = ?`

	rows, err := r.db.Raw(permQuery, *user.DepartmentID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permName string
		if err := rows.Scan(&permName); err != nil {
			return nil, err
		}
		permissions = append(permissions, permName)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	user.Permissions = permissions
	return &user, nil
}
