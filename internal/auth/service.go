package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/document-workspace/internal/core/events"
)

// Service performs credential validation and token lifecycle management.
type Service struct {
	userRepo       RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	sessions       SessionStoreAPI
	eventBus       *events.EventBus
	bcryptCost     int
	resetTokenTTL  time.Duration
	logger         *slog.Logger
}

func NewService(userRepo RepositoryAPI, tokenGen TokenGeneratorAPI, sessions SessionStoreAPI, eventBus *events.EventBus, bcryptCost int, resetTokenTTL time.Duration, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if resetTokenTTL <= 0 {
		resetTokenTTL = time.Hour
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		sessions:       sessions,
		eventBus:       eventBus,
		bcryptCost:     bcryptCost,
		resetTokenTTL:  resetTokenTTL,
		logger:         logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL == 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Register creates a new user account with a salted one-way password hash.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existingID, err := s.userRepo.GetUserIDByEmail(dto.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existingID != 0 {
		s.logger.Warn("registration rejected: duplicate email", "email", dto.Email)
		return nil, ErrDuplicateEmail
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.userRepo.CreateUser(dto.Email, dto.Name, hash, dto.DepartmentID)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID, "email", dto.Email)

	return s.userRepo.GetUserWithPermissions(userID)
}

// Authenticate validates credentials and returns a fresh token pair. The
// refresh token is persisted keyed by user id, overwriting any prior session.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	storedHash, userID, err := s.userRepo.GetPasswordForEmail(dto.Email)
	if err != nil {
		// same failure whether the email exists or not
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, userID, dto.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.userRepo.UpdateLastLogin(userID); err != nil {
		s.logger.Warn("failed to update last login timestamp", "user_id", userID, "error", err)
	}

	return tokens, nil
}

func (s *Service) issueTokens(ctx context.Context, userID int64, email string) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.sessions.StoreRefreshToken(ctx, userID, refreshToken, s.refreshTokenTTL()); err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) refreshTokenTTL() time.Duration {
	if gen, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		return gen.RefreshTokenTTL
	}
	return 24 * 7 * time.Hour
}

// RefreshTokens rotates the token pair. The presented refresh token must be
// cryptographically valid AND equal to the stored one; the swap happens via an
// atomic compare-and-swap so concurrent refreshes cannot both succeed.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rotated, err := s.sessions.RotateRefreshToken(ctx, claims.UserID, refreshToken, newRefreshToken, s.refreshTokenTTL())
	if err != nil {
		return AuthTokens{}, err
	}
	if !rotated {
		s.logger.Warn("refresh rejected: token is stale or superseded", "user_id", claims.UserID)
		return AuthTokens{}, ErrInvalidRefreshToken
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken checks the revocation marker before the signature; a
// blacklisted token fails exactly like a forged one.
func (s *Service) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	blacklisted, err := s.sessions.IsAccessTokenBlacklisted(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrTokenRevoked
	}

	return s.tokenGenerator.ValidateAccessToken(tokenString)
}

// Logout revokes the current access token and drops the stored refresh token.
// It never reports failure: a client must always be able to log out.
func (s *Service) Logout(ctx context.Context, userID int64, accessToken string) {
	if accessToken != "" {
		if err := s.revokeAccessToken(ctx, accessToken); err != nil {
			s.logger.Warn("logout: failed to revoke access token", "user_id", userID, "error", err)
		}
	}

	if err := s.sessions.DeleteRefreshToken(ctx, userID); err != nil {
		s.logger.Warn("logout: failed to delete refresh token", "user_id", userID, "error", err)
	}

	s.logger.Info("user logged out", "user_id", userID)
}

// revokeAccessToken stores a blacklist marker that lives exactly as long as
// the token's remaining lifetime.
func (s *Service) revokeAccessToken(ctx context.Context, tokenString string) error {
	claims, err := s.tokenGenerator.ValidateAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil
		}
		return err
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	return s.sessions.BlacklistAccessToken(ctx, tokenString, remaining)
}

// ForceLogoutAllSessions drops the stored refresh token for the user. Already
// issued access tokens run out via their natural short expiry.
func (s *Service) ForceLogoutAllSessions(ctx context.Context, userID int64) {
	if err := s.sessions.DeleteRefreshToken(ctx, userID); err != nil {
		s.logger.Warn("failed to force logout sessions", "user_id", userID, "error", err)
	}
}

// ForgotPassword stores a single-use reset token with the configured TTL and
// hands it to the mail boundary. It reports success even for unknown emails
// so the endpoint cannot be used to enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	userID, err := s.userRepo.GetUserIDByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if userID == 0 {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	token, err := GenerateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.sessions.StorePasswordResetToken(ctx, token, userID, s.resetTokenTTL); err != nil {
		return err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewPasswordResetRequestedEvent(userID, email, token))
	}

	s.logger.Info("password reset token issued", "user_id", userID)
	return nil
}

// ResetPassword redeems a reset token, updates the hash and invalidates the
// user's live session.
func (s *Service) ResetPassword(ctx context.Context, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	userID, err := s.sessions.ConsumePasswordResetToken(ctx, dto.Token)
	if err != nil {
		return err
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.ForceLogoutAllSessions(ctx, userID)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewPasswordChangedEvent(userID))
	}

	s.logger.Info("password reset completed", "user_id", userID)
	return nil
}

// ChangePassword verifies the old password before updating the hash, then
// revokes the current access token and the stored refresh token.
func (s *Service) ChangePassword(ctx context.Context, userID int64, accessToken string, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	storedHash, err := s.userRepo.GetPasswordForUserID(userID)
	if err != nil {
		return fmt.Errorf("failed to load password hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if accessToken != "" {
		if err := s.revokeAccessToken(ctx, accessToken); err != nil {
			s.logger.Warn("failed to revoke access token after password change", "user_id", userID, "error", err)
		}
	}
	s.ForceLogoutAllSessions(ctx, userID)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewPasswordChangedEvent(userID))
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// GetUserWithPermissions loads the user and its department-derived coarse
// permission set.
func (s *Service) GetUserWithPermissions(userID int64) (*User, error) {
	return s.userRepo.GetUserWithPermissions(userID)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password, s.bcryptCost)
}

// RBACAuthorization builds the route-level permission gate backed by the
// default checker.
func (s *Service) RBACAuthorization() *RBACAuthorization {
	return NewRBACAuthorization(&DefaultPermissionChecker{}, s.logger)
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, email string) (string, error) {
	return j.signToken(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, email string) (string, error) {
	return j.signToken(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

// signToken includes a unique jti claim: timestamps are second-granular, so
// without it two tokens minted in the same second would be byte-identical and
// rotation-on-use could hand back the very token it was meant to retire.
func (j *JWTTokenGenerator) signToken(userID int64, email string, ttl time.Duration, secret []byte) (string, error) {
	expiresAt := time.Now().Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateAccessToken verifies signature and expiry with the access secret.
func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validateToken(tokenString, j.AccessTokenSecret)
}

// ValidateRefreshToken verifies signature and expiry with the refresh secret.
// Distinct secrets mean a leaked access key cannot forge refresh tokens.
func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validateToken(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validateToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
