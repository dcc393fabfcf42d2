package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxEntries int) (*InMemoryCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewInMemoryCache(maxEntries, 0)
	c.now = clock.now
	return c, clock
}

func TestInMemoryCache_GetSet(t *testing.T) {
	// Arrange
	ctx := context.Background()
	c, clock := newTestCache(0)
	defer c.Close()

	// Act
	require.NoError(t, c.Set(ctx, "k", "v", 60))
	value, found := c.Get(ctx, "k")

	// Assert
	assert.True(t, found)
	assert.Equal(t, "v", value)

	clock.t = clock.t.Add(61 * time.Second)
	_, found = c.Get(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, Stats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())
}

func TestInMemoryCache_DeleteAndClear(t *testing.T) {
	// Arrange
	ctx := context.Background()
	c, _ := newTestCache(0)
	defer c.Close()
	_ = c.Set(ctx, "a", 1, 60)
	_ = c.Set(ctx, "b", 2, 60)

	// Act
	require.NoError(t, c.Delete(ctx, "a"))

	// Assert
	_, found := c.Get(ctx, "a")
	assert.False(t, found)
	_, found = c.Get(ctx, "b")
	assert.True(t, found)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestInMemoryCache_Set_EvictsWhenFull(t *testing.T) {
	tests := []struct {
		name        string
		advance     time.Duration
		wantEvicted string
	}{
		{name: "evicts soonest to expire", advance: 0, wantEvicted: "short"},
		{name: "purges expired first", advance: 15 * time.Second, wantEvicted: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			c, clock := newTestCache(2)
			defer c.Close()
			_ = c.Set(ctx, "long", "l", 300)
			_ = c.Set(ctx, "short", "s", 10)
			clock.t = clock.t.Add(tt.advance)

			// Act
			_ = c.Set(ctx, "new", "n", 60)

			// Assert
			_, found := c.Get(ctx, tt.wantEvicted)
			assert.False(t, found)
			_, found = c.Get(ctx, "long")
			assert.True(t, found)
			_, found = c.Get(ctx, "new")
			assert.True(t, found)
			assert.Equal(t, 2, c.Stats().Entries)
		})
	}
}

func TestInMemoryCache_Set_OverwriteDoesNotEvict(t *testing.T) {
	// Arrange
	ctx := context.Background()
	c, _ := newTestCache(1)
	defer c.Close()
	_ = c.Set(ctx, "k", 1, 60)

	// Act
	_ = c.Set(ctx, "k", 2, 60)

	// Assert
	value, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, 2, value)
}
