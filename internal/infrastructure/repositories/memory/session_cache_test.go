package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCache_SetAndGet(t *testing.T) {
	cache := NewMemorySessionCache(time.Minute)
	ctx := context.Background()

	instant := time.Now().Add(-time.Hour)
	require.NoError(t, cache.SetRevocationInstant(ctx, "u1", instant))

	got, ok, err := cache.GetRevocationInstant(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(instant))
}

func TestSessionCache_MissingEntry(t *testing.T) {
	cache := NewMemorySessionCache(time.Minute)

	_, ok, err := cache.GetRevocationInstant(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCache_EntryExpires(t *testing.T) {
	cache := NewMemorySessionCache(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, cache.SetRevocationInstant(ctx, "u1", time.Now()))
	time.Sleep(20 * time.Millisecond)

	_, ok, err := cache.GetRevocationInstant(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCache_Invalidate(t *testing.T) {
	cache := NewMemorySessionCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetRevocationInstant(ctx, "u1", time.Now()))
	require.NoError(t, cache.Invalidate(ctx, "u1"))

	_, ok, err := cache.GetRevocationInstant(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionCache_ZeroInstantIsCached(t *testing.T) {
	cache := NewMemorySessionCache(time.Minute)
	ctx := context.Background()

	// A zero instant means "never revoked" and must still count as a hit.
	require.NoError(t, cache.SetRevocationInstant(ctx, "u1", time.Time{}))

	got, ok, err := cache.GetRevocationInstant(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.IsZero())
}
