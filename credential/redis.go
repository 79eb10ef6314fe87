package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// The compare-and-swap runs server-side so two concurrent rotations with the
// same presented token can never both observe a match.
const rotateCredentialScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var rotateCredentialLua = redis.NewScript(rotateCredentialScript)

// RedisStore is the Redis-backed [Store]. One key per user; the value is the
// current refresh token, expiring with the refresh TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a store using the given client and key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ag"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + ":cred:" + userID
}

// Get implements [Store].
func (s *RedisStore) Get(ctx context.Context, userID string) (Record, error) {
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Record{UserID: userID, RefreshToken: val}, nil
}

// Put implements [Store].
func (s *RedisStore) Put(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(userID), refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Rotate implements [Store].
func (s *RedisStore) Rotate(ctx context.Context, userID, presented, next string, ttl time.Duration) error {
	status, err := rotateCredentialLua.Run(
		ctx,
		s.client,
		[]string{s.key(userID)},
		presented,
		next,
		ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch status {
	case rotateStatusNotFound:
		return ErrNotFound
	case rotateStatusMismatch:
		return ErrTokenMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unexpected rotate status %d", ErrUnavailable, status)
	}
}
