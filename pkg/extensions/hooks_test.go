package extensions

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPlugin struct {
	name     string
	initErr  error
	fired    atomic.Int32
	shutdown bool
}

func (p *countingPlugin) Name() string                     { return p.name }
func (p *countingPlugin) Version() string                  { return "test" }
func (p *countingPlugin) Initialize(context.Context) error { return p.initErr }
func (p *countingPlugin) Shutdown(context.Context) error {
	p.shutdown = true
	return nil
}
func (p *countingPlugin) RegisterHooks(m *HookManager) error {
	m.Register(HookAfterGraphMerge, func(context.Context, interface{}) error {
		p.fired.Add(1)
		return nil
	})
	return nil
}

func TestHookManager_Execute_StopsAtFirstError(t *testing.T) {
	// Arrange
	m := NewHookManager()
	var second bool
	m.Register(HookBeforeGraphMerge, func(context.Context, interface{}) error { return errors.New("veto") })
	m.Register(HookBeforeGraphMerge, func(context.Context, interface{}) error {
		second = true
		return nil
	})

	// Act
	err := m.Execute(context.Background(), HookBeforeGraphMerge, &HookData{})

	// Assert
	assert.ErrorContains(t, err, "veto")
	assert.False(t, second)
}

func TestHookManager_ExecuteAsync(t *testing.T) {
	// Arrange
	m := NewHookManager()
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		m.Register(HookCacheMiss, func(context.Context, interface{}) error {
			calls.Add(1)
			return errors.New("ignored")
		})
	}

	// Act
	m.ExecuteAsync(context.Background(), HookCacheMiss, nil)

	// Assert
	require.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 10*time.Millisecond)
}

func TestHookManager_Clear(t *testing.T) {
	// Arrange
	m := NewHookManager()
	m.Register(HookCacheHit, func(context.Context, interface{}) error { return errors.New("should not run") })

	// Act
	m.Clear(HookCacheHit)

	// Assert
	assert.NoError(t, m.Execute(context.Background(), HookCacheHit, nil))
}

func TestPluginManager_Lifecycle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	hooks := NewHookManager()
	m := NewPluginManager(hooks)
	b := &countingPlugin{name: "b"}
	a := &countingPlugin{name: "a"}

	// Act
	require.NoError(t, m.Register(ctx, b))
	require.NoError(t, m.Register(ctx, a))
	dupErr := m.Register(ctx, &countingPlugin{name: "a"})
	require.NoError(t, hooks.Execute(ctx, HookAfterGraphMerge, nil))
	shutdownErr := m.ShutdownAll(ctx)

	// Assert
	assert.Error(t, dupErr)
	assert.Equal(t, int32(1), a.fired.Load())
	assert.Equal(t, int32(1), b.fired.Load())
	assert.NoError(t, shutdownErr)
	assert.True(t, a.shutdown)
	assert.True(t, b.shutdown)
	assert.Empty(t, m.ListPlugins())
}

func TestPluginManager_Register_InitFailure(t *testing.T) {
	// Arrange
	m := NewPluginManager(NewHookManager())

	// Act
	err := m.Register(context.Background(), &countingPlugin{name: "broken", initErr: errors.New("no config")})

	// Assert
	assert.ErrorContains(t, err, "no config")
	_, ok := m.GetPlugin("broken")
	assert.False(t, ok)
}
