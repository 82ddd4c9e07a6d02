package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sgtes/maismedicos-go/internal/platform/env"
)

// Cache stores opaque values with a time to live.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
	TTL           time.Duration
}

func ConfigFromEnv() (Config, error) {
	db, err := env.Int("MME_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	ttl, err := env.Duration("MME_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		RedisAddr:     strings.TrimSpace(env.String("MME_REDIS_ADDR", "")),
		RedisPassword: env.String("MME_REDIS_PASSWORD", ""),
		RedisDB:       db,
		Prefix:        env.String("MME_CACHE_PREFIX", "mme:ref"),
		TTL:           ttl,
	}
	if cfg.TTL < 0 {
		return Config{}, fmt.Errorf("MME_CACHE_TTL must be >= 0")
	}
	return cfg, nil
}

// GetJSON decodes a cached JSON value into dst. A miss or a corrupt entry
// reports false.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(ctx, key, raw, ttl)
}
