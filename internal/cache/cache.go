// Package cache stores finished summaries keyed by a digest of the cleaned
// input so identical documents skip the model call.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"papersum/internal/models"
)

type SummaryCache interface {
	Get(ctx context.Context, key string) (models.SummaryResult, bool, error)
	Set(ctx context.Context, key string, res models.SummaryResult, ttl time.Duration) error
	Close() error
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

type Options struct {
	Driver        string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New builds the cache named by opts.Driver. An empty driver disables caching.
func New(ctx context.Context, opts Options) (SummaryCache, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverNone, "off", "disabled":
		return Noop{}, nil
	case DriverMemory:
		return NewMemory(opts.TTL), nil
	case DriverRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}

type Noop struct{}

func (Noop) Get(context.Context, string) (models.SummaryResult, bool, error) {
	return models.SummaryResult{}, false, nil
}

func (Noop) Set(context.Context, string, models.SummaryResult, time.Duration) error { return nil }

func (Noop) Close() error { return nil }
