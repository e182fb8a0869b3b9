// Package cache keeps rendered leaderboards in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"learnhub/backend/config"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "leaderboard:"
	versionKey = keyPrefix + "version"
)

// LeaderboardCache stores leaderboard JSON under versioned keys. Invalidate
// bumps the version, so every board written before it becomes unreachable
// and expires through its TTL.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache connects to cfg.RedisAddr. It returns nil, nil when no
// address is configured.
func NewLeaderboardCache(ctx context.Context, cfg *config.Config) (*LeaderboardCache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &LeaderboardCache{client: client, ttl: cfg.LeaderboardCacheTTL}, nil
}

func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}

// Key builds the storage key of board name under version.
func Key(version, name string) string {
	return keyPrefix + version + ":" + name
}

func (c *LeaderboardCache) version(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, versionKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *LeaderboardCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	v, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, Key(v, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, name string, value []byte) error {
	v, err := c.version(ctx)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(v, name), value, c.ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, versionKey).Err()
}
