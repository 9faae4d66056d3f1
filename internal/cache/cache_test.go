package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papersum/internal/models"
)

func sample() models.SummaryResult {
	return models.SummaryResult{Title: "T", Summary: "S with $x$", Keywords: []string{"a", "b", "c", "d", "e"}}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	in := sample()
	require.NoError(t, c.Set(ctx, "k", in, 0))
	in.Keywords[0] = "mutated"

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", got.Keywords[0])

	got.Keywords[1] = "mutated"
	again, _, _ := c.Get(ctx, "k")
	require.Equal(t, "b", again.Keywords[1])
}

func TestMemoryExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	require.NoError(t, c.Set(ctx, "k", sample(), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()

	c, err := New(ctx, Options{})
	require.NoError(t, err)
	require.IsType(t, Noop{}, c)

	c, err = New(ctx, Options{Driver: "Memory"})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, c)

	_, err = New(ctx, Options{Driver: "memcached"})
	require.Error(t, err)
}

func TestNoopNeverHits(t *testing.T) {
	ctx := context.Background()
	var c Noop
	require.NoError(t, c.Set(ctx, "k", sample(), time.Minute))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("PAPERSUM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PAPERSUM_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	defer c.Close()

	key := "test:" + time.Now().Format(time.RFC3339Nano)
	require.NoError(t, c.Set(ctx, key, sample(), time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sample(), got)
}
