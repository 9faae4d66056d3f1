package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"papersum/internal/models"
)

// Memory is a process-local cache backed by go-cache.
type Memory struct {
	c *gocache.Cache
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Memory{c: gocache.New(ttl, 10*time.Minute)}
}

func (m *Memory) Get(_ context.Context, key string) (models.SummaryResult, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return models.SummaryResult{}, false, nil
	}
	res, ok := v.(models.SummaryResult)
	if !ok {
		m.c.Delete(key)
		return models.SummaryResult{}, false, nil
	}
	return cloneResult(res), true, nil
}

// Set stores res; ttl <= 0 uses the cache default.
func (m *Memory) Set(_ context.Context, key string, res models.SummaryResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.c.Set(key, cloneResult(res), ttl)
	return nil
}

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}

func cloneResult(res models.SummaryResult) models.SummaryResult {
	res.Keywords = append([]string(nil), res.Keywords...)
	return res
}
