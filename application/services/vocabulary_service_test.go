package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/application/ports"
	"kgexplorer/application/ports/mocks"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/events"
	apperrors "kgexplorer/pkg/errors"
)

// mapCache is a TTL-less ports.Cache
type mapCache struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string]interface{})}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *mapCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]interface{})
	return nil
}

func sampleVocabulary() *raw.VocabularyTypes {
	return &raw.VocabularyTypes{Types: []raw.VocabularyType{
		{RelationshipType: "causes", Category: "causal", EdgeCount: 10, IsActive: true},
		{RelationshipType: "enables", Category: "causal", EdgeCount: 25, IsActive: true, CategoryAmbiguous: true},
		{RelationshipType: "part_of", Category: "structural", EdgeCount: 7, IsActive: true},
		{RelationshipType: "mentions", EdgeCount: 3, IsActive: true},
	}}
}

func TestVocabularyService_GetTypes_CachesListing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(sampleVocabulary(), nil).Once()
	service := NewVocabularyService(source, newMapCache(), 300, nil, nil, zap.NewNop())

	// Act
	first, err := service.GetTypes(ctx, ports.VocabularyOptions{})
	require.NoError(t, err)
	second, err := service.GetTypes(ctx, ports.VocabularyOptions{})
	require.NoError(t, err)

	// Assert
	assert.Len(t, first, 4)
	assert.Equal(t, first, second)
	source.AssertNumberOfCalls(t, "GetVocabularyTypes", 1)
}

func TestVocabularyService_GetTypes_ZeroTTLAlwaysFetches(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(sampleVocabulary(), nil)
	service := NewVocabularyService(source, newMapCache(), 0, nil, nil, zap.NewNop())

	// Act
	_, _ = service.GetTypes(ctx, ports.VocabularyOptions{})
	_, _ = service.GetTypes(ctx, ports.VocabularyOptions{})

	// Assert
	source.AssertNumberOfCalls(t, "GetVocabularyTypes", 2)
}

func TestVocabularyService_GetTypes_Failure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(nil, errors.New("boom"))
	service := NewVocabularyService(source, newMapCache(), 300, nil, nil, zap.NewNop())

	// Act
	types, err := service.GetTypes(ctx, ports.VocabularyOptions{})

	// Assert
	assert.Nil(t, types)
	assert.True(t, apperrors.IsExternal(err))
}

func TestVocabularyService_Categories(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(sampleVocabulary(), nil)
	service := NewVocabularyService(source, newMapCache(), 300, nil, nil, zap.NewNop())

	// Act
	groups, err := service.Categories(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []CategoryGroup{
		{Category: "causal", Types: []string{"enables", "causes"}, EdgeCount: 35, Ambiguous: 1},
		{Category: "structural", Types: []string{"part_of"}, EdgeCount: 7},
		{Category: UncategorizedLabel, Types: []string{"mentions"}, EdgeCount: 3},
	}, groups)
}

func TestVocabularyService_Refresh_InvalidatesCache(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(sampleVocabulary(), nil)
	source.On("RefreshVocabularyCategories", ctx, ports.RefreshOptions{OnlyComputed: true}).Return(nil)
	publisher := new(mocks.MockEventPublisher)
	publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DomainEvent) bool {
		return e.GetEventType() == events.TypeVocabularyRefreshed
	})).Return(nil)
	service := NewVocabularyService(source, newMapCache(), 300, publisher, nil, zap.NewNop())
	_, err := service.GetTypes(ctx, ports.VocabularyOptions{})
	require.NoError(t, err)

	// Act
	count, err := service.Refresh(ctx, ports.RefreshOptions{OnlyComputed: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	source.AssertNumberOfCalls(t, "GetVocabularyTypes", 2)
	publisher.AssertExpectations(t)
}

func TestVocabularyService_Refresh_UpstreamFailure(t *testing.T) {
	// Arrange
	ctx := context.Background()
	source := new(mocks.MockGraphDataSource)
	source.On("RefreshVocabularyCategories", ctx, ports.RefreshOptions{}).Return(errors.New("forbidden"))
	service := NewVocabularyService(source, newMapCache(), 300, nil, nil, zap.NewNop())

	// Act
	_, err := service.Refresh(ctx, ports.RefreshOptions{})

	// Assert
	assert.True(t, apperrors.IsExternal(err))
	source.AssertNotCalled(t, "GetVocabularyTypes", mock.Anything, mock.Anything)
}
