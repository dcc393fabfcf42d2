package observability

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kgexplorer/pkg/extensions"
)

var _ extensions.Plugin = (*AuditPlugin)(nil)

// AuditPlugin logs pipeline events that are otherwise silent: superseded results,
// failed queries, missing explorers, and vocabulary cache invalidations.
type AuditPlugin struct {
	logger *zap.Logger

	mu     sync.Mutex
	counts map[extensions.HookPoint]int
}

// NewAuditPlugin creates the audit plugin
func NewAuditPlugin(logger *zap.Logger) *AuditPlugin {
	return &AuditPlugin{
		logger: logger.Named("audit"),
		counts: make(map[extensions.HookPoint]int),
	}
}

// Name implements extensions.Plugin
func (p *AuditPlugin) Name() string { return "audit" }

// Version implements extensions.Plugin
func (p *AuditPlugin) Version() string { return "1.0.0" }

// Initialize implements extensions.Plugin
func (p *AuditPlugin) Initialize(context.Context) error { return nil }

// Shutdown implements extensions.Plugin
func (p *AuditPlugin) Shutdown(context.Context) error {
	_ = p.logger.Sync()
	return nil
}

// RegisterHooks implements extensions.Plugin
func (p *AuditPlugin) RegisterHooks(manager *extensions.HookManager) error {
	manager.Register(extensions.HookStaleResult, p.record(extensions.HookStaleResult, zap.DebugLevel, "Stale result dropped"))
	manager.Register(extensions.HookQueryFailed, p.record(extensions.HookQueryFailed, zap.WarnLevel, "Graph query failed"))
	manager.Register(extensions.HookExplorerMissing, p.record(extensions.HookExplorerMissing, zap.WarnLevel, "Explorer not registered"))
	manager.Register(extensions.HookCacheInvalidation, p.record(extensions.HookCacheInvalidation, zap.InfoLevel, "Vocabulary cache invalidated"))
	return nil
}

// Count reports how many times a hook point fired
func (p *AuditPlugin) Count(point extensions.HookPoint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[point]
}

func (p *AuditPlugin) record(point extensions.HookPoint, level zapcore.Level, msg string) extensions.Hook {
	return func(_ context.Context, data interface{}) error {
		p.mu.Lock()
		p.counts[point]++
		p.mu.Unlock()

		fields := []zap.Field{zap.String("hook", string(point))}
		if hd, ok := data.(*extensions.HookData); ok {
			fields = append(fields,
				zap.String("operation", hd.Operation),
				zap.String("sessionId", hd.SessionID),
				zap.Int("generation", hd.Generation),
			)
			if hd.Target != "" {
				fields = append(fields, zap.String("target", hd.Target))
			}
			if hd.Err != nil {
				fields = append(fields, zap.Error(hd.Err))
			}
		}
		if ce := p.logger.Check(level, msg); ce != nil {
			ce.Write(fields...)
		}
		return nil
	}
}
