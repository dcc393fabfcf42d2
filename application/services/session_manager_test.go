package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/domain/config"
	"kgexplorer/domain/core/valueobjects"
	apperrors "kgexplorer/pkg/errors"
)

func newTestSessionManager(ttl time.Duration) *SessionManager {
	return NewSessionManager(OrchestratorDeps{
		Queries: newGatedQueries(),
		Logger:  zap.NewNop(),
	}, "force-2d", ttl)
}

func TestSessionManager_CreateGetDelete(t *testing.T) {
	// Arrange
	m := newTestSessionManager(time.Hour)
	defer m.Close()

	// Act
	created := m.Create()
	fetched, err := m.Get(created.ID())

	// Assert
	require.NoError(t, err)
	assert.Same(t, created, fetched)
	assert.Len(t, created.ID(), 36)
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Delete(created.ID()))
	_, err = m.Get(created.ID())
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(m.Delete(created.ID())))
}

func TestSessionManager_Create_UniqueIDs(t *testing.T) {
	// Arrange
	m := newTestSessionManager(time.Hour)
	defer m.Close()

	// Act
	a := m.Create()
	b := m.Create()

	// Assert
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Len(t, m.IDs(), 2)
	assert.Equal(t, "force-2d", string(a.Explorer()))
}

func TestSessionManager_ExpireIdle(t *testing.T) {
	tests := []struct {
		name        string
		ttl         time.Duration
		elapsed     time.Duration
		wantExpired int
	}{
		{name: "idle past ttl", ttl: time.Minute, elapsed: 2 * time.Minute, wantExpired: 1},
		{name: "recently used", ttl: time.Minute, elapsed: 30 * time.Second, wantExpired: 0},
		{name: "expiry disabled", ttl: 0, elapsed: 24 * time.Hour, wantExpired: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			m := newTestSessionManager(tt.ttl)
			defer m.Close()
			m.Create()

			// Act
			expired := m.ExpireIdle(time.Now().Add(tt.elapsed))

			// Assert
			assert.Equal(t, tt.wantExpired, expired)
			assert.Equal(t, 1-tt.wantExpired, m.Count())
		})
	}
}

func TestSessionManager_ApplyDomainConfig(t *testing.T) {
	// Arrange
	ctx := context.Background()
	m := newTestSessionManager(time.Hour)
	defer m.Close()
	existing := m.Create()

	cfg := config.DefaultDomainConfig()
	cfg.MaxDepth = 1

	// Act
	m.ApplyDomainConfig(cfg)
	later := m.Create()

	// Assert
	for _, o := range []*Orchestrator{existing, later} {
		_, err := o.SetSearchParams(ctx, valueobjects.NeighborhoodSearch("A", 2, ""))
		assert.True(t, apperrors.IsValidation(err))
	}
}
