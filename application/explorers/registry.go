package explorers

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry maps explorer types to implementations
type Registry struct {
	explorers map[ExplorerType]Explorer
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		explorers: make(map[ExplorerType]Explorer),
		logger:    logger,
	}
}

// Register inserts an explorer keyed by its type. A later registration for the same
// type replaces the earlier one.
func (r *Registry) Register(explorer Explorer) error {
	if explorer == nil {
		return fmt.Errorf("explorer cannot be nil")
	}
	cfg := explorer.Config()
	if cfg.Type == "" {
		return fmt.Errorf("explorer %q has no type", cfg.ID)
	}
	if !cfg.RequiredDataShape.IsValid() {
		return fmt.Errorf("explorer %s declares unknown data shape %q", cfg.Type, cfg.RequiredDataShape)
	}

	r.mu.Lock()
	_, replaced := r.explorers[cfg.Type]
	r.explorers[cfg.Type] = explorer
	r.mu.Unlock()

	if replaced {
		r.logger.Info("Explorer replaced", zap.String("type", string(cfg.Type)))
	} else {
		r.logger.Debug("Explorer registered", zap.String("type", string(cfg.Type)))
	}
	return nil
}

// MustRegister registers explorers and panics on an invalid one
func (r *Registry) MustRegister(explorers ...Explorer) *Registry {
	for _, e := range explorers {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the explorer for a type. The boolean is false when none is registered.
func (r *Registry) Get(explorerType ExplorerType) (Explorer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	explorer, ok := r.explorers[explorerType]
	return explorer, ok
}

// GetByDataShape returns the explorers that draw the given shape, ordered by type
func (r *Registry) GetByDataShape(shape DataShape) []Explorer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]Explorer, 0)
	for _, e := range r.explorers {
		if e.Config().RequiredDataShape == shape {
			matches = append(matches, e)
		}
	}
	sortByType(matches)
	return matches
}

// List returns all explorers ordered by type
func (r *Registry) List() []Explorer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Explorer, 0, len(r.explorers))
	for _, e := range r.explorers {
		all = append(all, e)
	}
	sortByType(all)
	return all
}

// Configs returns the configs of the given explorers
func Configs(list []Explorer) []ExplorerConfig {
	out := make([]ExplorerConfig, len(list))
	for i, e := range list {
		out[i] = e.Config()
	}
	return out
}

func sortByType(list []Explorer) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Config().Type < list[j].Config().Type
	})
}
