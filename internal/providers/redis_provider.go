package providers

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisOptions names the Redis holding shared rate limit buckets.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing and every command. Zero means two seconds.
	Timeout time.Duration
}

// NewRedisClient returns a client for the bucket store. Bucket takes are
// small scripts, so the pool stays tiny and commands time out quickly.
func NewRedisClient(opts RedisOptions) *redis.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolSize:     4,
		MaxRetries:   1,
	})
}

// PingRedis reports whether rdb answers within its timeout.
func PingRedis(ctx context.Context, rdb *redis.Client) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return errors.Wrapf(err, "redis %s", rdb.Options().Addr)
	}
	return nil
}
