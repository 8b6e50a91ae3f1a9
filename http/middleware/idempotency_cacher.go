package middleware

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/retention"
)

// IdempotencyTTL is how long a response stays paired to its idempotency key.
const IdempotencyTTL = 24 * time.Hour

const idemKeyPrefix = "retention:idem:"

var (
	_ IdempotencyCacher = (*IdemResMap)(nil)
	_ IdempotencyCacher = (*IdemResRedis)(nil)
)

// An IdempotencyCacher stores responses paired to idempotency keys.
type IdempotencyCacher interface {
	// Reserve pairs idemRes to key unless key is already in use,
	// in which case Reserve returns false.
	Reserve(ctx context.Context, key string, idemRes IdemRes) (bool, error)

	Get(ctx context.Context, key string) (IdemRes, bool, error)
	Set(ctx context.Context, key string, idemRes IdemRes) error
	Delete(ctx context.Context, key string) error
}

// An IdemResMap stores idempotency key, IdemRes value pairs in a map.
//
// Server restarts reset this map.
// IdemResMap ought not be used for production environments.
type IdemResMap struct {
	mu   sync.Mutex
	vals map[string]idemResMapVal
	now  func() time.Time
}

type idemResMapVal struct {
	IdemRes
	at time.Time
}

// NewIdemResMap constructs an empty *IdemResMap.
func NewIdemResMap() *IdemResMap {
	return &IdemResMap{vals: make(map[string]idemResMapVal), now: time.Now}
}

func (i *IdemResMap) Reserve(ctx context.Context, key string, idemRes IdemRes) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.evict()
	if _, ok := i.vals[key]; ok {
		return false, nil
	}

	i.vals[key] = idemResMapVal{IdemRes: idemRes, at: i.now()}
	return true, nil
}

func (i *IdemResMap) Get(ctx context.Context, key string) (IdemRes, bool, error) {
	if err := ctx.Err(); err != nil {
		return IdemRes{}, false, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.evict()
	v, ok := i.vals[key]
	return v.IdemRes, ok, nil
}

func (i *IdemResMap) Set(ctx context.Context, key string, idemRes IdemRes) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.vals[key] = idemResMapVal{IdemRes: idemRes, at: i.now()}
	return nil
}

func (i *IdemResMap) Delete(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.vals, key)
	return nil
}

// evict drops pairs older than IdempotencyTTL. The caller holds i.mu.
func (i *IdemResMap) evict() {
	cutoff := i.now().Add(-IdempotencyTTL)
	for k, v := range i.vals {
		if v.at.Before(cutoff) {
			delete(i.vals, k)
		}
	}
}

// An IdemResRedis caches idempotent responses in Redis, gob-encoded.
type IdemResRedis struct {
	client *redis.Client
}

// NewRedisCache constructs an *IdemResRedis using client.
func NewRedisCache(client *redis.Client) *IdemResRedis {
	return &IdemResRedis{client: client}
}

func (i *IdemResRedis) Reserve(ctx context.Context, key string, idemRes IdemRes) (bool, error) {
	b, err := encodeIdemRes(idemRes)
	if err != nil {
		return false, err
	}

	ok, err := i.client.SetNX(ctx, idemKeyPrefix+key, b, IdempotencyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%w: reserving idempotency key: %s", retention.ErrDependency, err)
	}

	return ok, nil
}

func (i *IdemResRedis) Get(ctx context.Context, key string) (IdemRes, bool, error) {
	b, err := i.client.Get(ctx, idemKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return IdemRes{}, false, nil
	}

	if err != nil {
		return IdemRes{}, false, fmt.Errorf("%w: reading idempotency key: %s", retention.ErrDependency, err)
	}

	var ir IdemRes
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&ir); err != nil {
		return IdemRes{}, false, fmt.Errorf("%w: decoding idempotent response: %s", retention.ErrUnexpected, err)
	}

	return ir, true, nil
}

func (i *IdemResRedis) Set(ctx context.Context, key string, idemRes IdemRes) error {
	b, err := encodeIdemRes(idemRes)
	if err != nil {
		return err
	}

	if err := i.client.Set(ctx, idemKeyPrefix+key, b, IdempotencyTTL).Err(); err != nil {
		return fmt.Errorf("%w: saving idempotent response: %s", retention.ErrDependency, err)
	}

	return nil
}

func (i *IdemResRedis) Delete(ctx context.Context, key string) error {
	if err := i.client.Del(ctx, idemKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: deleting idempotency key: %s", retention.ErrDependency, err)
	}

	return nil
}

func encodeIdemRes(ir IdemRes) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(ir); err != nil {
		return nil, fmt.Errorf("%w: encoding idempotent response: %s", retention.ErrUnexpected, err)
	}

	return buf.Bytes(), nil
}
