package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kgexplorer/application/commands"
	"kgexplorer/application/commands/bus"
	"kgexplorer/application/ports"
	"kgexplorer/application/services"
)

// SessionHandler executes session commands against the session manager
type SessionHandler struct {
	sessions *services.SessionManager
	logger   *zap.Logger
}

// NewSessionHandler creates a new session command handler
func NewSessionHandler(sessions *services.SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Register binds every session command to h
func (h *SessionHandler) Register(commandBus *bus.CommandBus) error {
	for _, cmd := range []bus.Command{
		commands.CreateSessionCommand{},
		commands.DeleteSessionCommand{},
		commands.SetSearchCommand{},
		commands.ClearSearchCommand{},
		commands.NavigateCommand{},
		commands.FollowConceptCommand{},
		commands.SelectExplorerCommand{},
		commands.UpdateSettingsCommand{},
	} {
		if err := commandBus.Register(cmd, h); err != nil {
			return err
		}
	}
	return nil
}

// Handle executes a session command
func (h *SessionHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	switch c := cmd.(type) {
	case commands.CreateSessionCommand:
		return h.sessions.Create().Snapshot(), nil

	case commands.DeleteSessionCommand:
		return nil, h.sessions.Delete(c.SessionID)

	case commands.SetSearchCommand:
		o, err := h.sessions.Get(c.SessionID)
		if err != nil {
			return nil, err
		}
		generation, err := o.SetSearchParams(ctx, c.Params)
		if err != nil {
			return nil, err
		}
		return commands.SearchAccepted{SessionID: c.SessionID, Generation: generation}, nil

	case commands.ClearSearchCommand:
		o, err := h.sessions.Get(c.SessionID)
		if err != nil {
			return nil, err
		}
		return commands.SearchAccepted{SessionID: c.SessionID, Generation: o.ClearSearchParams(ctx)}, nil

	case commands.NavigateCommand:
		return h.navigate(ctx, c)

	case commands.FollowConceptCommand:
		o, err := h.sessions.Get(c.SessionID)
		if err != nil {
			return nil, err
		}
		generation, err := o.FollowConcept(ctx, c.NodeID, c.Depth)
		if err != nil {
			return nil, err
		}
		return commands.SearchAccepted{SessionID: c.SessionID, Generation: generation}, nil

	case commands.SelectExplorerCommand:
		o, err := h.sessions.Get(c.SessionID)
		if err != nil {
			return nil, err
		}
		return o.SelectExplorer(ctx, c.ExplorerType), nil

	case commands.UpdateSettingsCommand:
		o, err := h.sessions.Get(c.SessionID)
		if err != nil {
			return nil, err
		}
		return o.UpdateSettings(ctx, c.Settings), nil

	default:
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}
}

func (h *SessionHandler) navigate(ctx context.Context, c commands.NavigateCommand) (interface{}, error) {
	o, err := h.sessions.Get(c.SessionID)
	if err != nil {
		return nil, err
	}

	switch c.Action {
	case commands.NavigateTo:
		return o.NavigateToNode(ctx, c.NodeID)
	case commands.NavigateBack:
		return o.NavigateBack(ctx), nil
	case commands.NavigateForward:
		return o.NavigateForward(ctx), nil
	case commands.NavigateFocus:
		return o.SetFocusedNode(ctx, c.NodeID)
	default:
		return nil, fmt.Errorf("unknown navigation action %q", c.Action)
	}
}

// VocabularyHandler executes vocabulary commands
type VocabularyHandler struct {
	vocabulary *services.VocabularyService
	logger     *zap.Logger
}

// NewVocabularyHandler creates a new vocabulary command handler
func NewVocabularyHandler(vocabulary *services.VocabularyService, logger *zap.Logger) *VocabularyHandler {
	return &VocabularyHandler{
		vocabulary: vocabulary,
		logger:     logger,
	}
}

// Handle executes a vocabulary command
func (h *VocabularyHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.RefreshVocabularyCommand)
	if !ok {
		return nil, fmt.Errorf("unsupported command type %T", cmd)
	}

	count, err := h.vocabulary.Refresh(ctx, ports.RefreshOptions{OnlyComputed: c.OnlyComputed})
	if err != nil {
		return nil, err
	}
	return commands.VocabularyRefreshed{TypeCount: count}, nil
}
