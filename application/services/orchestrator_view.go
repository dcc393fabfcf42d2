package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kgexplorer/application/explorers"
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/valueobjects"
	"kgexplorer/domain/events"
	"kgexplorer/pkg/errors"
	"kgexplorer/pkg/extensions"
)

// NavigateToNode pushes nodeID onto the history and focuses it
func (o *Orchestrator) NavigateToNode(ctx context.Context, nodeID string) (aggregates.NavigationSnapshot, error) {
	id, err := valueobjects.NewNodeID(nodeID)
	if err != nil {
		return aggregates.NavigationSnapshot{}, errors.NewValidationError(err.Error())
	}

	return o.navigate(ctx, func(h *aggregates.NavigationHistory) bool {
		h.NavigateToNode(id)
		return true
	}), nil
}

// NavigateBack moves one history entry back; at the first entry nothing changes
func (o *Orchestrator) NavigateBack(ctx context.Context) aggregates.NavigationSnapshot {
	return o.navigate(ctx, (*aggregates.NavigationHistory).NavigateBack)
}

// NavigateForward moves one history entry forward; at the last entry nothing changes
func (o *Orchestrator) NavigateForward(ctx context.Context) aggregates.NavigationSnapshot {
	return o.navigate(ctx, (*aggregates.NavigationHistory).NavigateForward)
}

// SetFocusedNode changes the focus without recording history
func (o *Orchestrator) SetFocusedNode(ctx context.Context, nodeID string) (aggregates.NavigationSnapshot, error) {
	id, err := valueobjects.NewNodeID(nodeID)
	if err != nil {
		return aggregates.NavigationSnapshot{}, errors.NewValidationError(err.Error())
	}

	return o.navigate(ctx, func(h *aggregates.NavigationHistory) bool {
		h.SetFocusedNodeID(id)
		return true
	}), nil
}

// Navigation returns the navigation state
func (o *Orchestrator) Navigation() aggregates.NavigationSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.history.Snapshot()
}

func (o *Orchestrator) navigate(ctx context.Context, move func(*aggregates.NavigationHistory) bool) aggregates.NavigationSnapshot {
	o.mu.Lock()
	changed := move(o.history)
	snap := o.history.Snapshot()
	generation := o.generation
	if changed {
		o.updatedAt = time.Now()
	}
	o.mu.Unlock()

	if changed {
		o.publish(ctx, events.NewNavigationChanged(o.id, generation,
			snap.FocusedNodeID, snap.OriginNodeID, snap.HistoryIndex, len(snap.History), time.Now()))
	}
	return snap
}

// FollowConcept navigates to nodeID and adds its neighborhood to the canonical graph
func (o *Orchestrator) FollowConcept(ctx context.Context, nodeID string, depth int) (int, error) {
	params := valueobjects.NeighborhoodSearch(nodeID, depth, valueobjects.LoadModeAdd)

	o.mu.Lock()
	validator := o.validator
	o.mu.Unlock()
	if err := validator.Validate(params.Normalize()); err != nil {
		return 0, err
	}

	if _, err := o.NavigateToNode(ctx, nodeID); err != nil {
		return 0, err
	}
	return o.SetSearchParams(ctx, params)
}

// HandleNodeClick is the click callback handed to explorers. It records the node in history.
func (o *Orchestrator) HandleNodeClick(nodeID string) {
	if _, err := o.NavigateToNode(o.baseCtx, nodeID); err != nil {
		o.logger.Debug("Ignoring click on invalid node", zap.String("nodeID", nodeID))
	}
}

// SelectExplorer switches the active explorer. Unknown types are accepted and render the placeholder.
func (o *Orchestrator) SelectExplorer(ctx context.Context, explorerType explorers.ExplorerType) explorers.Settings {
	if _, ok := o.registry.Get(explorerType); !ok {
		o.logger.Warn("Selected explorer is not registered", zap.String("explorerType", string(explorerType)))
	}

	o.mu.Lock()
	o.explorer = explorerType
	o.updatedAt = time.Now()
	settings := o.settingsLocked(explorerType)
	generation := o.generation
	o.mu.Unlock()

	o.hooks.ExecuteAsync(ctx, extensions.HookExplorerSelected, &extensions.HookData{
		SessionID:  o.id,
		Generation: generation,
		Operation:  "select",
		Target:     string(explorerType),
	})
	o.publish(ctx, events.NewExplorerChanged(o.id, generation, string(explorerType), settings, time.Now()))
	return settings
}

// Explorer returns the selected explorer type
func (o *Orchestrator) Explorer() explorers.ExplorerType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.explorer
}

// UpdateSettings overlays changes on the active explorer's settings
func (o *Orchestrator) UpdateSettings(ctx context.Context, changes explorers.Settings) explorers.Settings {
	o.mu.Lock()
	explorerType := o.explorer
	settings := o.settingsLocked(explorerType).Merge(changes)
	o.settings[explorerType] = settings
	o.updatedAt = time.Now()
	generation := o.generation
	o.mu.Unlock()

	o.publish(ctx, events.NewExplorerChanged(o.id, generation, string(explorerType), settings.Clone(), time.Now()))
	return settings.Clone()
}

// settingsLocked returns a copy of the stored settings for explorerType over its defaults.
// Must be called with o.mu held.
func (o *Orchestrator) settingsLocked(explorerType explorers.ExplorerType) explorers.Settings {
	base := explorers.Settings{}
	if explorer, ok := o.registry.Get(explorerType); ok {
		base = explorer.DefaultSettings()
	}
	return base.Merge(o.settings[explorerType])
}

// Render hands a copy of the canonical graph to the active explorer.
// A missing explorer yields the placeholder view instead of an error.
func (o *Orchestrator) Render(ctx context.Context) (explorers.View, error) {
	o.mu.Lock()
	explorerType := o.explorer
	data := o.graph.Clone()
	settings := o.settingsLocked(explorerType)
	generation := o.generation
	o.mu.Unlock()

	explorer, ok := o.registry.Get(explorerType)
	if !ok {
		o.logger.Warn("No explorer registered, rendering placeholder", zap.String("explorerType", string(explorerType)))
		o.hooks.ExecuteAsync(ctx, extensions.HookExplorerMissing, &extensions.HookData{
			SessionID:  o.id,
			Generation: generation,
			Operation:  "render",
			Target:     string(explorerType),
		})
		return explorers.PlaceholderView(explorerType), nil
	}

	view, err := explorer.Render(ctx, explorers.RenderProps{
		Data:     data,
		Settings: settings,
		OnSettingsChange: func(changes explorers.Settings) {
			o.UpdateSettings(o.baseCtx, changes)
		},
		OnNodeClick: o.HandleNodeClick,
	})
	if err != nil {
		return explorers.View{}, errors.NewInternalError(fmt.Sprintf("explorer %s failed to render", explorerType)).WithCause(err)
	}
	return view, nil
}
