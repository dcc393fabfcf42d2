package extensions

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// HookPoint represents a point in the application where hooks can be registered
type HookPoint string

const (
	// Query hooks fire around every graph fetch dispatched through the query bus
	HookBeforeQueryExecute HookPoint = "before_query_execute"
	HookAfterQueryExecute  HookPoint = "after_query_execute"
	HookQueryFailed        HookPoint = "query_failed"

	// Graph pipeline hooks fire in the session orchestrator
	HookBeforeGraphMerge HookPoint = "before_graph_merge"
	HookAfterGraphMerge  HookPoint = "after_graph_merge"
	HookStaleResult      HookPoint = "stale_result"

	// Explorer hooks
	HookExplorerSelected HookPoint = "explorer_selected"
	HookExplorerMissing  HookPoint = "explorer_missing"

	// Vocabulary cache
	HookCacheMiss         HookPoint = "cache_miss"
	HookCacheHit          HookPoint = "cache_hit"
	HookCacheInvalidation HookPoint = "cache_invalidation"
)

// Hook represents a function that can be executed at a hook point
type Hook func(ctx context.Context, data interface{}) error

// HookManager manages hooks for extension points
type HookManager struct {
	hooks map[HookPoint][]Hook
	mu    sync.RWMutex
}

// NewHookManager creates a new hook manager
func NewHookManager() *HookManager {
	return &HookManager{
		hooks: make(map[HookPoint][]Hook),
	}
}

// Register registers a hook for a specific hook point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hooks[point] == nil {
		m.hooks[point] = []Hook{}
	}
	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute executes all hooks for a specific hook point
func (m *HookManager) Execute(ctx context.Context, point HookPoint, data interface{}) error {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(ctx, data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}

	return nil
}

// ExecuteAsync executes hooks asynchronously
func (m *HookManager) ExecuteAsync(ctx context.Context, point HookPoint, data interface{}) {
	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for _, hook := range hooks {
		go func(h Hook) {
			_ = h(ctx, data) // Ignore errors in async execution
		}(hook)
	}
}

// Clear removes all hooks for a specific hook point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hooks, point)
}

// ClearAll removes all registered hooks
func (m *HookManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[HookPoint][]Hook)
}

// HookData represents data passed to hooks
type HookData struct {
	SessionID  string                 `json:"session_id,omitempty"`
	Generation int                    `json:"generation,omitempty"`
	Operation  string                 `json:"operation"`
	Target     string                 `json:"target,omitempty"`
	Before     interface{}            `json:"before,omitempty"`
	After      interface{}            `json:"after,omitempty"`
	Err        error                  `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// Plugin bundles a set of hooks that are installed and removed together
type Plugin interface {
	Name() string
	Version() string

	// Initialize prepares the plugin before its hooks are installed
	Initialize(ctx context.Context) error

	// RegisterHooks installs the plugin's hooks
	RegisterHooks(manager *HookManager) error

	// Shutdown releases anything the plugin holds
	Shutdown(ctx context.Context) error
}

// PluginManager manages plugins
type PluginManager struct {
	plugins     map[string]Plugin
	hookManager *HookManager
	mu          sync.RWMutex
}

// NewPluginManager creates a new plugin manager
func NewPluginManager(hookManager *HookManager) *PluginManager {
	return &PluginManager{
		plugins:     make(map[string]Plugin),
		hookManager: hookManager,
	}
}

// Hooks returns the manager plugins register into
func (m *PluginManager) Hooks() *HookManager {
	return m.hookManager
}

// Register initializes a plugin and installs its hooks
func (m *PluginManager) Register(ctx context.Context, plugin Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := plugin.Name()
	if _, exists := m.plugins[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	if err := plugin.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize plugin %s: %w", name, err)
	}

	if err := plugin.RegisterHooks(m.hookManager); err != nil {
		return fmt.Errorf("failed to register hooks for plugin %s: %w", name, err)
	}

	m.plugins[name] = plugin
	return nil
}

// Unregister shuts a plugin down. Its hooks stay installed until the hook point is cleared.
func (m *PluginManager) Unregister(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	plugin, exists := m.plugins[name]
	if !exists {
		return fmt.Errorf("plugin %s not found", name)
	}

	if err := plugin.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown plugin %s: %w", name, err)
	}

	delete(m.plugins, name)
	return nil
}

// GetPlugin retrieves a plugin by name
func (m *PluginManager) GetPlugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, exists := m.plugins[name]
	return plugin, exists
}

// ListPlugins returns the registered plugin names, sorted
func (m *PluginManager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.plugins))
	for name := range m.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShutdownAll shuts every plugin down and returns the first error
func (m *PluginManager) ShutdownAll(ctx context.Context) error {
	var firstErr error
	for _, name := range m.ListPlugins() {
		if err := m.Unregister(ctx, name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
