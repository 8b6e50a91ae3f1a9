// Package session invalidates an account's sessions when it is suspended.
//
// Sessions are issued elsewhere as bearer tokens.
// Revoking stamps the account with a revocation time;
// any token issued before that time is rejected from then on.
package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/xy-planning-network/retention"
)

const keyPrefix = "retention:revoked:"

// A Checker reports when an account's sessions were last revoked.
type Checker interface {
	RevokedAt(ctx context.Context, accountID uuid.UUID) (time.Time, bool, error)
}

// A Revoker revokes sessions and reports when an account's sessions were last revoked.
type Revoker interface {
	retention.SessionRevoker
	Checker
}

// Revoked reports whether a session issued at iat was revoked.
// A session issued in the same instant as the revocation counts as revoked.
func Revoked(ctx context.Context, r Checker, accountID uuid.UUID, iat time.Time) (bool, error) {
	at, ok, err := r.RevokedAt(ctx, accountID)
	if err != nil || !ok {
		return false, err
	}

	return !iat.After(at), nil
}

var (
	_ Revoker = (*RedisRevoker)(nil)
	_ Revoker = (*MapRevoker)(nil)
)

// A RedisRevoker keeps revocation times in Redis.
type RedisRevoker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRevoker constructs a *RedisRevoker.
// Revocation marks expire after ttl, which ought to exceed the lifetime of a bearer token;
// zero keeps them forever.
func NewRedisRevoker(client *redis.Client, ttl time.Duration) *RedisRevoker {
	return &RedisRevoker{client: client, ttl: ttl}
}

// RevokeAll rejects every session of the account issued at or before at.
func (r *RedisRevoker) RevokeAll(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	err := r.client.Set(ctx, keyPrefix+accountID.String(), at.Unix(), r.ttl).Err()
	if err != nil {
		return fmt.Errorf("%w: revoking sessions: %s", retention.ErrDependency, err)
	}

	return nil
}

func (r *RedisRevoker) RevokedAt(ctx context.Context, accountID uuid.UUID) (time.Time, bool, error) {
	v, err := r.client.Get(ctx, keyPrefix+accountID.String()).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}

	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: reading session revocation: %s", retention.ErrDependency, err)
	}

	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: session revocation %q: %s", retention.ErrUnexpected, v, err)
	}

	return time.Unix(unix, 0).UTC(), true, nil
}

// A MapRevoker keeps revocation times in memory.
// Restarts forget them; use it in development and tests only.
type MapRevoker struct {
	mu      sync.Mutex
	revoked map[uuid.UUID]time.Time
}

// NewMapRevoker constructs an empty *MapRevoker.
func NewMapRevoker() *MapRevoker { return &MapRevoker{revoked: make(map[uuid.UUID]time.Time)} }

func (r *MapRevoker) RevokeAll(_ context.Context, accountID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.revoked[accountID] = at.Truncate(time.Second)
	return nil
}

func (r *MapRevoker) RevokedAt(_ context.Context, accountID uuid.UUID) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at, ok := r.revoked[accountID]
	return at, ok, nil
}
