// Package mocks provides testify mocks of the application ports
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"kgexplorer/application/ports"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/events"
)

// MockGraphDataSource is a mock implementation of ports.GraphDataSource
type MockGraphDataSource struct {
	mock.Mock
}

var _ ports.GraphDataSource = (*MockGraphDataSource)(nil)

func (m *MockGraphDataSource) GetSubgraph(ctx context.Context, centerID string, depth, limit int) (*raw.Graph, error) {
	args := m.Called(ctx, centerID, depth, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*raw.Graph), args.Error(1)
}

func (m *MockGraphDataSource) FindConnection(ctx context.Context, fromID, toID string, maxHops int) (*raw.ConnectionResult, error) {
	args := m.Called(ctx, fromID, toID, maxHops)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*raw.ConnectionResult), args.Error(1)
}

func (m *MockGraphDataSource) GetVocabularyTypes(ctx context.Context, opts ports.VocabularyOptions) (*raw.VocabularyTypes, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*raw.VocabularyTypes), args.Error(1)
}

func (m *MockGraphDataSource) RefreshVocabularyCategories(ctx context.Context, opts ports.RefreshOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

var _ ports.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}
