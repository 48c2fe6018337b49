package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/document-workspace/internal"
)

const (
	refreshTokenKeyPrefix  = "refresh_token:"
	blacklistKeyPrefix     = "blacklist:"
	passwordResetKeyPrefix = "password_reset:"
)

// rotateScript swaps the stored refresh token for a new one only when the
// presented token matches what is stored. Running it server-side makes the
// compare-and-swap atomic: of two concurrent refreshes, exactly one wins.
var rotateScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "EX", ARGV[3])
	return 1
end
return 0
`)

// NewRedisClient connects to the expiring key-value store used for sessions.
func NewRedisClient(cfg internal.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// SessionStore keeps the single live refresh token per user, the access-token
// blacklist and password-reset tokens, all with self-expiring keys.
type SessionStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewSessionStore(client *redis.Client, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		logger: logger,
	}
}

func refreshTokenKey(userID int64) string {
	return refreshTokenKeyPrefix + strconv.FormatInt(userID, 10)
}

// StoreRefreshToken overwrites any previous refresh token for the user:
// single live session per user.
func (s *SessionStore) StoreRefreshToken(ctx context.Context, userID int64, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshTokenKey(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken atomically replaces the stored token with next if and
// only if presented is the currently stored token. Returns false when the
// presented token is stale or no session exists.
func (s *SessionStore) RotateRefreshToken(ctx context.Context, userID int64, presented, next string, ttl time.Duration) (bool, error) {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	res, err := rotateScript.Run(ctx, s.client, []string{refreshTokenKey(userID)}, presented, next, seconds).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return res == 1, nil
}

func (s *SessionStore) DeleteRefreshToken(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, refreshTokenKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// BlacklistAccessToken records a revocation marker whose TTL equals the
// token's remaining lifetime, so the blacklist never outlives the token.
func (s *SessionStore) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// token already expired; signature validation rejects it anyway
		return nil
	}
	if err := s.client.Set(ctx, blacklistKeyPrefix+token, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}
	return nil
}

func (s *SessionStore) IsAccessTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	_, err := s.client.Get(ctx, blacklistKeyPrefix+token).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return true, nil
}

func (s *SessionStore) StorePasswordResetToken(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, passwordResetKeyPrefix+token, strconv.FormatInt(userID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store password reset token: %w", err)
	}
	return nil
}

// ConsumePasswordResetToken reads and deletes the token in one call so a
// reset token can only ever be redeemed once.
func (s *SessionStore) ConsumePasswordResetToken(ctx context.Context, token string) (int64, error) {
	val, err := s.client.GetDel(ctx, passwordResetKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, ErrInvalidResetToken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to consume password reset token: %w", err)
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt password reset entry: %w", err)
	}
	return userID, nil
}
