package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kgexplorer/application/explorers"
	"kgexplorer/domain/config"
	"kgexplorer/pkg/errors"
)

type sessionEntry struct {
	orchestrator *Orchestrator
	lastAccess   time.Time
}

// SessionManager owns the orchestrators of all live explorer sessions
type SessionManager struct {
	sessions        map[string]*sessionEntry
	deps            OrchestratorDeps
	defaultExplorer explorers.ExplorerType
	ttl             time.Duration
	logger          *zap.Logger
	mu              sync.RWMutex
}

// NewSessionManager creates a session manager. A ttl of zero disables expiry.
func NewSessionManager(deps OrchestratorDeps, defaultExplorer explorers.ExplorerType, ttl time.Duration) *SessionManager {
	if deps.Config == nil {
		deps.Config = config.DefaultDomainConfig()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopPipelineMetrics{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		sessions:        make(map[string]*sessionEntry),
		deps:            deps,
		defaultExplorer: defaultExplorer,
		ttl:             ttl,
		logger:          logger,
	}
}

// Create starts a new session with a fresh id
func (m *SessionManager) Create() *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	o := NewOrchestrator(id, m.defaultExplorer, m.deps)
	m.sessions[id] = &sessionEntry{orchestrator: o, lastAccess: time.Now()}
	m.deps.Metrics.SetActiveSessions(len(m.sessions))

	m.logger.Info("Session created", zap.String("sessionID", id))
	return o
}

// Get returns the session and refreshes its expiry
func (m *SessionManager) Get(id string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session")
	}
	entry.lastAccess = time.Now()
	return entry.orchestrator, nil
}

// Delete closes and removes a session
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.deps.Metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	if !ok {
		return errors.NewNotFoundError("session")
	}
	entry.orchestrator.Close()
	m.logger.Info("Session deleted", zap.String("sessionID", id))
	return nil
}

// IDs returns the ids of all live sessions, sorted
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// ApplyDomainConfig pushes new defaults and limits to every live session and to sessions created later
func (m *SessionManager) ApplyDomainConfig(cfg *config.DomainConfig) {
	if cfg == nil {
		return
	}

	m.mu.Lock()
	m.deps.Config = cfg
	live := make([]*Orchestrator, 0, len(m.sessions))
	for _, entry := range m.sessions {
		live = append(live, entry.orchestrator)
	}
	m.mu.Unlock()

	for _, o := range live {
		o.SetDomainConfig(cfg)
	}
	m.logger.Info("Domain config applied to sessions", zap.Int("sessionCount", len(live)))
}

// ExpireIdle removes sessions not accessed since now minus the ttl and returns how many were removed
func (m *SessionManager) ExpireIdle(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	expired := []*Orchestrator{}
	for id, entry := range m.sessions {
		if now.Sub(entry.lastAccess) > m.ttl {
			expired = append(expired, entry.orchestrator)
			delete(m.sessions, id)
		}
	}
	m.deps.Metrics.SetActiveSessions(len(m.sessions))
	m.mu.Unlock()

	for _, o := range expired {
		o.Close()
		m.logger.Info("Session expired", zap.String("sessionID", o.ID()))
	}
	return len(expired)
}

// Run expires idle sessions every interval until ctx is done
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := m.ExpireIdle(now); n > 0 {
				m.logger.Debug("Expired idle sessions", zap.Int("count", n))
			}
		}
	}
}

// Close closes every session
func (m *SessionManager) Close() {
	m.mu.Lock()
	live := m.sessions
	m.sessions = make(map[string]*sessionEntry)
	m.mu.Unlock()

	for _, entry := range live {
		entry.orchestrator.Close()
	}
}
