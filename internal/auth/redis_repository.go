package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// sessionTTL bounds how long a cached user record may be served
const sessionTTL = 3600 * time.Second

// SessionCache keeps the public user record keyed by username.
// Implementations treat backend failures as a cache miss.
type SessionCache interface {
	Get(ctx context.Context, username string) (*user.User, bool)
	Set(ctx context.Context, u *user.User)
	Invalidate(ctx context.Context, username string)
}

// TokenDenylist records revoked token ids until the token would expire anyway
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRepository implements SessionCache and TokenDenylist on Redis
type RedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, now: time.Now}
}

// getSessionKey generates the Redis key for a cached user
func getSessionKey(username string) string {
	return fmt.Sprintf("user:%s", username)
}

// getRevokedKey generates the Redis key for a revoked token marker
func getRevokedKey(jti string) string {
	return fmt.Sprintf("refresh_token:revoked:%s", jti)
}

// Get returns the cached user. Decode and connection errors count as a miss.
func (r *RedisRepository) Get(ctx context.Context, username string) (*user.User, bool) {
	data, err := r.client.Get(ctx, getSessionKey(username)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.FromContext(ctx).Warn("session cache read failed", "username", username, "error", err)
		}
		return nil, false
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		logging.FromContext(ctx).Warn("session cache entry is corrupt", "username", username, "error", err)
		return nil, false
	}

	return &u, true
}

// Set caches the public projection of u; the password hash is never written
func (r *RedisRepository) Set(ctx context.Context, u *user.User) {
	if u == nil {
		return
	}

	data, err := json.Marshal(u.Public())
	if err != nil {
		return
	}

	if err := r.client.Set(ctx, getSessionKey(u.Username), data, sessionTTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("session cache write failed", "username", u.Username, "error", err)
	}
}

// Invalidate drops the cached record for username
func (r *RedisRepository) Invalidate(ctx context.Context, username string) {
	if err := r.client.Del(ctx, getSessionKey(username)).Err(); err != nil {
		logging.FromContext(ctx).Warn("session cache delete failed", "username", username, "error", err)
	}
}

// Revoke marks the token id as revoked for the rest of its lifetime
func (r *RedisRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrInvalidToken
	}

	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// Already expired, nothing can replay it
		return nil
	}

	if err := r.client.Set(ctx, getRevokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token id was revoked
func (r *RedisRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, getRevokedKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return true, nil
}
