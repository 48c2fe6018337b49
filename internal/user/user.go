package user

import (
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	DepartmentID *int64     `json:"department_id,omitempty"`
	Department   string     `json:"department,omitempty"`
	IsActive     bool       `json:"is_active"`
	Permissions  []string   `json:"permissions,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) IsActiveUser() bool {
	return u.IsActive
}
