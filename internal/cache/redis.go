package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis implements Cache on a Redis connection. An unreachable Redis is
// reported as a miss, never as a request failure.
type Redis struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedis connects to Redis and pings it once to surface configuration
// problems early. A failed ping is logged, not fatal.
func NewRedis(ctx context.Context, url string, logger *logrus.Logger) (*Redis, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis ping failed, cache will degrade to misses")
	} else {
		logger.Info("redis connected")
	}

	return &Redis{client: client, logger: logger}, nil
}

// Get returns the stored value, or ErrMiss on absence or any Redis error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).WithField("key", key).Debug("cache get failed, treating as miss")
		}
		return nil, ErrMiss
	}
	return value, nil
}

// Set stores a value with a time-to-live. Errors are logged and absorbed.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key).Debug("cache set failed")
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
