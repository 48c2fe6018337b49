package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// System-wide permission names, derived from the user's department. The
// folder resolver treats PermManageFolders as a blanket override.
const (
	PermAdmin             = "admin"
	PermManageFolders     = "manage_folders"
	PermCreateFolders     = "create_folders"
	PermManageDepartments = "manage_departments"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// User is the authenticated principal attached to a request.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	DepartmentID *int64   `json:"department_id,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermAdmin)
}

func (u *User) CanManageFolders() bool {
	return u.HasAnyPermission([]string{PermManageFolders, PermAdmin})
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*User, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)
	Logout(ctx context.Context, userID int64, accessToken string)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, dto ResetPasswordDTO) error
	ChangePassword(ctx context.Context, userID int64, accessToken string, dto ChangePasswordDTO) error
	GetUserWithPermissions(userID int64) (*User, error)
}

type RepositoryAPI interface {
	GetPasswordForEmail(email string) (passwordHash string, userID int64, err error)
	GetPasswordForUserID(userID int64) (string, error)
	GetUserIDByEmail(email string) (int64, error)
	CreateUser(email, name, passwordHash string, departmentID *int64) (int64, error)
	UpdatePassword(userID int64, passwordHash string) error
	UpdateLastLogin(userID int64) error
	GetUserWithPermissions(userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID int64, email string) (token string, err error)
	GenerateRefreshToken(userID int64, email string) (token string, err error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

// SessionStoreAPI is the expiring key-value surface backing refresh-token
// sessions, the access-token blacklist and password-reset tokens.
type SessionStoreAPI interface {
	StoreRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error
	RotateRefreshToken(ctx context.Context, userID int64, presented, next string, ttl time.Duration) (bool, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
	BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error
	IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error)
	StorePasswordResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	ConsumePasswordResetToken(ctx context.Context, token string) (int64, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrUserInactive        = errors.New("user is inactive")
)

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
