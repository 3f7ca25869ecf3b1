package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionState is the server-side half of a login. A bearer token is only
// honoured while its sid matches the stored one.
type SessionState struct {
	SessionID string    `json:"sid"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	IssuedAt  time.Time `json:"issued_at"`
}

// KeyUserSession holds a user's single live session.
func KeyUserSession(uid string) string {
	return "user:session:" + uid
}

// SaveSession replaces the user's session. ttl should match the token expiry;
// redis.KeepTTL keeps the current expiry.
func SaveSession(ctx context.Context, rdb *redis.Client, st SessionState, ttl time.Duration) error {
	return setJSON(ctx, rdb, KeyUserSession(st.UserID), st, ttl)
}

// LoadSession reports false when the user has no live session.
func LoadSession(ctx context.Context, rdb *redis.Client, uid string) (*SessionState, bool, error) {
	var st SessionState
	ok, err := getJSON(ctx, rdb, KeyUserSession(uid), &st)
	if !ok || err != nil {
		return nil, false, err
	}
	return &st, true, nil
}

func DropSession(ctx context.Context, rdb *redis.Client, uid string) error {
	return rdb.Del(ctx, KeyUserSession(uid)).Err()
}

func setJSON(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

func getJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}
