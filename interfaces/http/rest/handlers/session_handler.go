package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"kgexplorer/application/commands"
	"kgexplorer/application/commands/bus"
	"kgexplorer/application/explorers"
	"kgexplorer/application/services"
	"kgexplorer/domain/core/valueobjects"
	apperrors "kgexplorer/pkg/errors"
)

// SessionHandler handles explorer session requests.
// State changes go through the command bus; reads come straight from the session.
type SessionHandler struct {
	commandBus *bus.CommandBus
	sessions   *services.SessionManager
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	commandBus *bus.CommandBus,
	sessions *services.SessionManager,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		commandBus: commandBus,
		sessions:   sessions,
		errors:     errorHandler,
		logger:     logger,
	}
}

type nodeRequest struct {
	NodeID string `json:"nodeId"`
}

type followRequest struct {
	NodeID string `json:"nodeId"`
	Depth  int    `json:"depth"`
}

type explorerRequest struct {
	Type explorers.ExplorerType `json:"type"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, http.StatusCreated, commands.CreateSessionCommand{})
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.logger, http.StatusOK, o.Snapshot())
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"sessions": h.sessions.IDs(),
		"count":    h.sessions.Count(),
	})
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.commandBus.Send(r.Context(), commands.DeleteSessionCommand{SessionID: sessionID(r)}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSearch handles PUT /sessions/{sessionID}/search. The fetch runs in the background;
// the response carries the generation that identifies it.
func (h *SessionHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var params valueobjects.SearchParams
	if err := decodeBody(w, r, &params, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusAccepted, commands.SetSearchCommand{SessionID: sessionID(r), Params: params})
}

// ClearSearch handles DELETE /sessions/{sessionID}/search
func (h *SessionHandler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, http.StatusOK, commands.ClearSearchCommand{SessionID: sessionID(r)})
}

// GetGraph handles GET /sessions/{sessionID}/graph. The body is null until a query has published.
func (h *SessionHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}
	status, _ := o.Status()
	w.Header().Set("X-Graph-Status", string(status))
	w.Header().Set("X-Graph-Generation", strconv.Itoa(o.Generation()))
	respondJSON(w, h.logger, http.StatusOK, o.Graph())
}

// NavigateTo handles POST /sessions/{sessionID}/navigate
func (h *SessionHandler) NavigateTo(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusOK, commands.NavigateCommand{
		SessionID: sessionID(r),
		Action:    commands.NavigateTo,
		NodeID:    req.NodeID,
	})
}

// NavigateBack handles POST /sessions/{sessionID}/back
func (h *SessionHandler) NavigateBack(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, http.StatusOK, commands.NavigateCommand{SessionID: sessionID(r), Action: commands.NavigateBack})
}

// NavigateForward handles POST /sessions/{sessionID}/forward
func (h *SessionHandler) NavigateForward(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, http.StatusOK, commands.NavigateCommand{SessionID: sessionID(r), Action: commands.NavigateForward})
}

// SetFocus handles PUT /sessions/{sessionID}/focus
func (h *SessionHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusOK, commands.NavigateCommand{
		SessionID: sessionID(r),
		Action:    commands.NavigateFocus,
		NodeID:    req.NodeID,
	})
}

// FollowConcept handles POST /sessions/{sessionID}/follow
func (h *SessionHandler) FollowConcept(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusAccepted, commands.FollowConceptCommand{
		SessionID: sessionID(r),
		NodeID:    req.NodeID,
		Depth:     req.Depth,
	})
}

// SelectExplorer handles PUT /sessions/{sessionID}/explorer
func (h *SessionHandler) SelectExplorer(w http.ResponseWriter, r *http.Request) {
	var req explorerRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusOK, commands.SelectExplorerCommand{SessionID: sessionID(r), ExplorerType: req.Type})
}

// UpdateSettings handles PUT /sessions/{sessionID}/explorer/settings
func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings explorers.Settings
	if err := decodeBody(w, r, &settings, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.dispatch(w, r, http.StatusOK, commands.UpdateSettingsCommand{SessionID: sessionID(r), Settings: settings})
}

// Render handles GET /sessions/{sessionID}/render
func (h *SessionHandler) Render(w http.ResponseWriter, r *http.Request) {
	o, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := o.Render(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, view)
}

func (h *SessionHandler) dispatch(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := h.commandBus.Dispatch(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, status, result)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*services.Orchestrator, bool) {
	o, err := h.sessions.Get(sessionID(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return nil, false
	}
	return o, true
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}
