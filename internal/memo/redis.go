package memo

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces memo keys in a shared Redis.
const DefaultRedisPrefix = "promptlab:memo:"

// Redis shares the memo between several promptlab processes.
type Redis struct {
	rdb    *goredis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection with a ping.
func OpenRedis(ctx context.Context, addr string) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{rdb: rdb, prefix: DefaultRedisPrefix}, nil
}

// WithPrefix returns a store sharing the connection under another namespace.
func (r *Redis) WithPrefix(prefix string) *Redis {
	return &Redis{rdb: r.rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

// Put stores without expiry.
func (r *Redis) Put(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error { return r.rdb.Close() }
