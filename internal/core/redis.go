// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/retail-backend/internal/config"
)

// Redis backs the token revocation cache and the rate limiter. Both degrade
// to Postgres or a local bucket when it is down, so only startup requires it.
type Redis struct {
	Client *redis.Client
}

const (
	redisPingTimeout   = 5 * time.Second
	redisConnectTries  = 3
	redisRetryInterval = 500 * time.Millisecond
)

// NewRedis dials and pings, retrying briefly so the API can start alongside
// a Redis container that is still booting.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.PoolTimeout = 30 * time.Second
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{Client: redis.NewClient(opts)}

	var pingErr error
retry:
	for attempt := 1; attempt <= redisConnectTries; attempt++ {
		if pingErr = r.Ping(ctx); pingErr == nil {
			return r, nil
		}
		if attempt == redisConnectTries {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(time.Duration(attempt) * redisRetryInterval):
		}
	}

	_ = r.Client.Close() //nolint:errcheck // cleanup on connection failure
	return nil, fmt.Errorf("connect redis: %w", pingErr)
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

// Ping is the readiness check for the redis dependency.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.PoolStats()
}
