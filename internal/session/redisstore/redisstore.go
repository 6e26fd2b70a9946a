package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/labconnect/internal/session"
)

const keyPrefix = "session:"

// record is the JSON value stored under each session key.
type record struct {
	CreatedAt int64 `json:"createdAt"`
	ExpiresAt int64 `json:"expiresAt"`
}

// RedisStore implements session.Store on Redis keys with native expiry.
type RedisStore struct {
	client *redis.Client
}

var _ session.Store = (*RedisStore)(nil)

// New connects to redisURL and checks the connection.
func New(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// sessionKey returns the key holding a session record.
func sessionKey(code string) string {
	return keyPrefix + code
}

// Insert uses SET NX so concurrent creators of one code cannot both win.
// Expired keys are gone by the time the next SET NX runs.
func (s *RedisStore) Insert(ctx context.Context, sess session.Session) (bool, error) {
	ttl := sess.ExpiresAt.Sub(sess.CreatedAt)
	if ttl <= 0 {
		return false, fmt.Errorf("insert session %s: non-positive ttl", sess.Code)
	}

	data, err := json.Marshal(record{
		CreatedAt: sess.CreatedAt.UnixNano(),
		ExpiresAt: sess.ExpiresAt.UnixNano(),
	})
	if err != nil {
		return false, err
	}

	ok, err := s.client.SetNX(ctx, sessionKey(sess.Code), data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx session: %w", err)
	}
	return ok, nil
}

// Get loads the session for code and rechecks expiry against now.
func (s *RedisStore) Get(ctx context.Context, code string, now time.Time) (session.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return session.Session{}, fmt.Errorf("decode session: %w", err)
	}

	sess := session.Session{
		Code:      code,
		CreatedAt: time.Unix(0, rec.CreatedAt),
		ExpiresAt: time.Unix(0, rec.ExpiresAt),
	}
	if sess.ExpiredAt(now) {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

// DeleteExpired is a no-op: Redis evicts expired keys itself.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
