package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyNamespace = "proc"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RankingCache хранит рассчитанный рейтинг тендера.
type RankingCache interface {
	Get(ctx context.Context, tenderID int, dest any) (bool, error)
	Set(ctx context.Context, tenderID int, value any) error
	Invalidate(ctx context.Context, tenderID int) error
}

// Redis: кэш рейтингов в Redis, значения хранятся в JSON.
type Redis struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// NewRedis подключается по URL (redis://host:port/db) и проверяет соединение.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{store: raw, raw: raw, ttl: ttl}, nil
}

func newRedisWithStore(store cmdable, ttl time.Duration) *Redis {
	return &Redis{store: store, ttl: ttl}
}

func RankingKey(tenderID int) string {
	return keyNamespace + ":ranking:" + strconv.Itoa(tenderID)
}

func (c *Redis) Get(ctx context.Context, tenderID int, dest any) (bool, error) {
	data, err := c.store.Get(ctx, RankingKey(tenderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get ranking %d: %w", tenderID, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// Битое значение считаем промахом.
		_ = c.Invalidate(ctx, tenderID)
		return false, nil
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, tenderID int, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode ranking %d: %w", tenderID, err)
	}
	return c.store.Set(ctx, RankingKey(tenderID), data, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, tenderID int) error {
	return c.store.Del(ctx, RankingKey(tenderID)).Err()
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// Noop используется, когда Redis не настроен.
type Noop struct{}

func (Noop) Get(context.Context, int, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, int, any) error         { return nil }
func (Noop) Invalidate(context.Context, int) error       { return nil }
