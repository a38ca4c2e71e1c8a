// Package otp implements the server-side one-time password store: codes are
// keyed by a session id, expire after a TTL, and are consumed on first use.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// kv is the slice of redis the store uses. *redis.Client satisfies it.
type kv interface {
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// Store issues and verifies single-use expiring codes.
type Store struct {
	rdb kv
	ttl time.Duration
}

// NewStore creates a store with the given code lifetime.
func NewStore(rdb kv, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Issue generates a 6-digit code under a fresh session id. The code lives in
// redis only; callers deliver it out of band and hand the session id to the
// client.
func (s *Store) Issue(ctx context.Context) (sessionID, code string, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	code = fmt.Sprintf("%06d", n.Int64())
	sessionID = uuid.NewString()
	if err := s.rdb.SetEx(ctx, key(sessionID), code, s.ttl).Err(); err != nil {
		return "", "", err
	}
	return sessionID, code, nil
}

// Verify consumes the code for a session. A match succeeds exactly once;
// expired, unknown or mismatched codes fail. On mismatch the code is already
// gone, so a fresh one must be issued.
func (s *Store) Verify(ctx context.Context, sessionID, code string) (bool, error) {
	stored, err := s.rdb.GetDel(ctx, key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == code, nil
}

func key(sessionID string) string { return "otp:" + sessionID }
