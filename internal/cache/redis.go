package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"papersum/internal/models"
)

const redisPrefix = "papersum:"

// Redis shares cached summaries between API and worker processes.
type Redis struct {
	rdb *redis.Client
}

// NewRedis accepts either host:port or a redis:// URL.
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{rdb: rdb}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (models.SummaryResult, bool, error) {
	raw, err := r.rdb.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SummaryResult{}, false, nil
	}
	if err != nil {
		return models.SummaryResult{}, false, fmt.Errorf("redis get: %w", err)
	}
	var res models.SummaryResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.SummaryResult{}, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return res, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, res models.SummaryResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode cached summary: %w", err)
	}
	if err := r.rdb.Set(ctx, redisPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
