package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store backs session revocation and request throttling.
type Store interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisClient(addr, password string, db int, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", zap.String("addr", addr))
	return &RedisClient{client: rdb, log: log}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

func (r *RedisClient) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, "blacklist:"+jti, "1", ttl).Err()
}

func (r *RedisClient) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := r.client.Exists(ctx, "blacklist:"+jti).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Allow counts a hit against key inside a fixed window and reports whether
// the caller is still within limit.
func (r *RedisClient) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	k := "ratelimit:" + key
	n, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			r.log.Warn("ratelimit expire failed", zap.String("key", k), zap.Error(err))
		}
	}
	return n <= limit, nil
}

// NoopStore is used when Redis is not configured: nothing is revoked and
// every request is allowed.
type NoopStore struct{}

func (NoopStore) BlacklistToken(context.Context, string, time.Duration) error { return nil }

func (NoopStore) IsTokenBlacklisted(context.Context, string) (bool, error) { return false, nil }

func (NoopStore) Allow(context.Context, string, int64, time.Duration) (bool, error) { return true, nil }
