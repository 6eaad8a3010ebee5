package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis keeps secrets under <prefix><slot> keys, shared by every machine
// pointing at the same server.
type Redis struct {
	client redisClient
	prefix string
	ttl    time.Duration
}

func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}, nil
}

func (r *Redis) Get(ctx context.Context, slot string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+slot).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", slot, err)
	}
	return v, v != "", nil
}

func (r *Redis) Set(ctx context.Context, slot, secret string) error {
	if slot == "" {
		return ErrEmptySlot
	}
	if err := r.client.Set(ctx, r.prefix+slot, secret, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", slot, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
