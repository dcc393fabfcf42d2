package bus

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgexplorer/pkg/extensions"
)

type testQuery struct {
	Key     string
	Invalid bool
}

func (q testQuery) Validate() error {
	if q.Invalid {
		return errors.New("invalid")
	}
	return nil
}

func (q testQuery) CacheKey() string { return q.Key }

type uncachedQuery struct{}

func (uncachedQuery) Validate() error { return nil }

type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

type noopTimer struct{}

func (noopTimer) Stop() {}

func (m *countingMetrics) StartTimer(metric, label string) Timer { return noopTimer{} }

func (m *countingMetrics) Increment(metric, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metric+":"+label]++
}

func TestQueryBus_Ask(t *testing.T) {
	// Arrange
	b := NewQueryBus()
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return "result:" + q.(testQuery).Key, nil
	})))

	// Act
	result, err := b.Ask(context.Background(), testQuery{Key: "a"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "result:a", result)
}

func TestQueryBus_Register_Duplicate(t *testing.T) {
	b := NewQueryBus()
	handler := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) { return nil, nil })

	require.NoError(t, b.Register(testQuery{}, handler))
	assert.Error(t, b.Register(testQuery{}, handler))
}

func TestQueryBus_Ask_Errors(t *testing.T) {
	b := NewQueryBus()
	cause := errors.New("boom")
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		return nil, cause
	})))

	_, err := b.Ask(context.Background(), testQuery{Invalid: true})
	assert.ErrorContains(t, err, "query validation failed")

	_, err = b.Ask(context.Background(), uncachedQuery{})
	assert.ErrorContains(t, err, "no handler registered")

	_, err = b.Ask(context.Background(), testQuery{})
	assert.ErrorIs(t, err, cause)
}

func TestCachingMiddleware_Wrap(t *testing.T) {
	// Arrange
	calls := 0
	cache := &mapCache{items: map[string]interface{}{}}
	b := NewQueryBus(NewCachingMiddleware(cache, 60))
	handler := QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return calls, nil
	})
	require.NoError(t, b.Register(testQuery{}, handler))
	require.NoError(t, b.Register(uncachedQuery{}, handler))

	// Act
	first, _ := b.Ask(context.Background(), testQuery{Key: "a"})
	second, _ := b.Ask(context.Background(), testQuery{Key: "a"})
	third, _ := b.Ask(context.Background(), testQuery{Key: "b"})
	_, _ = b.Ask(context.Background(), uncachedQuery{})
	_, _ = b.Ask(context.Background(), uncachedQuery{})

	// Assert
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, 2, third)
	assert.Equal(t, 4, calls)
}

func TestCachingMiddleware_ZeroTTLDisablesCache(t *testing.T) {
	calls := 0
	b := NewQueryBus(NewCachingMiddleware(&mapCache{items: map[string]interface{}{}}, 0))
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		calls++
		return calls, nil
	})))

	_, _ = b.Ask(context.Background(), testQuery{Key: "a"})
	_, _ = b.Ask(context.Background(), testQuery{Key: "a"})

	assert.Equal(t, 2, calls)
}

func TestMetricsMiddleware_Wrap(t *testing.T) {
	metrics := &countingMetrics{counts: map[string]int{}}
	b := NewQueryBus(NewMetricsMiddleware(metrics))
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		if q.(testQuery).Key == "fail" {
			return nil, errors.New("fail")
		}
		return "ok", nil
	})))

	_, _ = b.Ask(context.Background(), testQuery{Key: "ok"})
	_, _ = b.Ask(context.Background(), testQuery{Key: "fail"})

	assert.Equal(t, 2, metrics.counts["query_count:testQuery"])
	assert.Equal(t, 1, metrics.counts["query_success:testQuery"])
	assert.Equal(t, 1, metrics.counts["query_errors:testQuery"])
}

func TestHookMiddleware_BeforeHookAborts(t *testing.T) {
	// Arrange
	hooks := extensions.NewHookManager()
	hooks.Register(extensions.HookBeforeQueryExecute, func(ctx context.Context, data interface{}) error {
		if data.(*extensions.HookData).Operation == "testQuery" {
			return errors.New("blocked")
		}
		return nil
	})
	called := false
	b := NewQueryBus(NewHookMiddleware(hooks))
	require.NoError(t, b.Register(testQuery{}, QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
		called = true
		return nil, nil
	})))

	// Act
	_, err := b.Ask(context.Background(), testQuery{Key: "a"})

	// Assert
	assert.ErrorContains(t, err, "blocked")
	assert.False(t, called)
}
