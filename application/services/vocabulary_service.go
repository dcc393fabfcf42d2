package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"kgexplorer/application/ports"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/events"
	"kgexplorer/pkg/errors"
	"kgexplorer/pkg/extensions"
)

// UncategorizedLabel groups relationship types without a category
const UncategorizedLabel = "uncategorized"

// CategoryGroup is one legend section: a category and its relationship types
type CategoryGroup struct {
	Category  string   `json:"category"`
	Types     []string `json:"types"`
	EdgeCount int      `json:"edgeCount"`
	Ambiguous int      `json:"ambiguous"`
}

// VocabularyService serves relationship types from a TTL cache.
// Concurrent misses for the same listing share one upstream call.
type VocabularyService struct {
	source    ports.GraphDataSource
	cache     ports.Cache
	ttl       int // TTL in seconds
	publisher ports.EventPublisher
	hooks     *extensions.HookManager
	logger    *zap.Logger

	flight singleflight.Group
	keysMu sync.Mutex
	keys   map[string]struct{}
}

// NewVocabularyService creates a vocabulary service
func NewVocabularyService(
	source ports.GraphDataSource,
	cache ports.Cache,
	ttl int,
	publisher ports.EventPublisher,
	hooks *extensions.HookManager,
	logger *zap.Logger,
) *VocabularyService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if hooks == nil {
		hooks = extensions.NewHookManager()
	}
	return &VocabularyService{
		source:    source,
		cache:     cache,
		ttl:       ttl,
		publisher: publisher,
		hooks:     hooks,
		logger:    logger,
		keys:      make(map[string]struct{}),
	}
}

func vocabularyCacheKey(opts ports.VocabularyOptions) string {
	return fmt.Sprintf("vocabulary:%t:%s:%d", opts.IncludeInactive, opts.Category, opts.Limit)
}

// GetTypes lists relationship types matching opts
func (s *VocabularyService) GetTypes(ctx context.Context, opts ports.VocabularyOptions) ([]raw.VocabularyType, error) {
	key := vocabularyCacheKey(opts)

	if cached, found := s.cache.Get(ctx, key); found {
		if types, ok := cached.([]raw.VocabularyType); ok {
			s.hooks.ExecuteAsync(ctx, extensions.HookCacheHit, &extensions.HookData{Operation: "vocabulary", Target: key})
			return copyTypes(types), nil
		}
	}
	s.hooks.ExecuteAsync(ctx, extensions.HookCacheMiss, &extensions.HookData{Operation: "vocabulary", Target: key})

	result, err, shared := s.flight.Do(key, func() (interface{}, error) {
		response, err := s.source.GetVocabularyTypes(ctx, opts)
		if err != nil {
			return nil, errors.FromFetchError("graph-api", fmt.Errorf("failed to fetch vocabulary types: %w", err))
		}
		types := []raw.VocabularyType{}
		if response != nil && response.Types != nil {
			types = response.Types
		}
		if s.ttl > 0 {
			if err := s.cache.Set(ctx, key, types, s.ttl); err != nil {
				s.logger.Warn("Failed to cache vocabulary types", zap.String("key", key), zap.Error(err))
			} else {
				s.rememberKey(key)
			}
		}
		return types, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.Debug("Vocabulary fetch shared with concurrent caller", zap.String("key", key))
	}
	return copyTypes(result.([]raw.VocabularyType)), nil
}

// Categories groups the active relationship types by category, ordered by category name.
// Types within a group are ordered by edge count, most used first.
func (s *VocabularyService) Categories(ctx context.Context) ([]CategoryGroup, error) {
	types, err := s.GetTypes(ctx, ports.VocabularyOptions{})
	if err != nil {
		return nil, err
	}
	return GroupByCategory(types), nil
}

// GroupByCategory builds legend groups from a vocabulary listing
func GroupByCategory(types []raw.VocabularyType) []CategoryGroup {
	byCategory := make(map[string][]raw.VocabularyType)
	for _, t := range types {
		category := t.Category
		if category == "" {
			category = UncategorizedLabel
		}
		byCategory[category] = append(byCategory[category], t)
	}

	groups := make([]CategoryGroup, 0, len(byCategory))
	for category, members := range byCategory {
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].EdgeCount != members[j].EdgeCount {
				return members[i].EdgeCount > members[j].EdgeCount
			}
			return members[i].RelationshipType < members[j].RelationshipType
		})

		group := CategoryGroup{Category: category, Types: make([]string, 0, len(members))}
		for _, m := range members {
			group.Types = append(group.Types, m.RelationshipType)
			group.EdgeCount += m.EdgeCount
			if m.CategoryAmbiguous {
				group.Ambiguous++
			}
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Category < groups[j].Category
	})
	return groups
}

// Refresh asks the upstream API to recompute categories, drops every cached listing
// and reports the number of active types afterwards.
func (s *VocabularyService) Refresh(ctx context.Context, opts ports.RefreshOptions) (int, error) {
	if err := s.source.RefreshVocabularyCategories(ctx, opts); err != nil {
		return 0, errors.FromFetchError("graph-api", fmt.Errorf("failed to refresh vocabulary categories: %w", err))
	}

	invalidated := s.Invalidate(ctx)
	s.logger.Info("Vocabulary categories refreshed", zap.Int("invalidatedKeys", invalidated))

	types, err := s.GetTypes(ctx, ports.VocabularyOptions{})
	if err != nil {
		return 0, err
	}

	if err := s.publisher.Publish(ctx, events.NewVocabularyRefreshed(len(types), time.Now())); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("eventType", events.TypeVocabularyRefreshed), zap.Error(err))
	}
	return len(types), nil
}

// Invalidate drops every cached vocabulary listing and returns how many were dropped
func (s *VocabularyService) Invalidate(ctx context.Context) int {
	s.keysMu.Lock()
	keys := s.keys
	s.keys = make(map[string]struct{})
	s.keysMu.Unlock()

	for key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Failed to invalidate vocabulary cache", zap.String("key", key), zap.Error(err))
		}
	}
	s.hooks.ExecuteAsync(ctx, extensions.HookCacheInvalidation, &extensions.HookData{
		Operation: "vocabulary",
		Metadata:  map[string]interface{}{"keys": len(keys)},
	})
	return len(keys)
}

func (s *VocabularyService) rememberKey(key string) {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	s.keys[key] = struct{}{}
}

func copyTypes(types []raw.VocabularyType) []raw.VocabularyType {
	out := make([]raw.VocabularyType, len(types))
	copy(out, types)
	return out
}
