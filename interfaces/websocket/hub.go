// Package websocket streams session events to connected explorer clients.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"kgexplorer/application/ports"
	"kgexplorer/domain/events"
)

var _ ports.EventPublisher = (*Hub)(nil)

// ErrHubFull is returned when the broadcast queue cannot take another event
var ErrHubFull = errors.New("websocket hub broadcast queue full")

// Message is the envelope written to clients
type Message struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"sessionId,omitempty"`
	Generation int             `json:"generation"`
	Timestamp  int64           `json:"timestamp"`
	Data       json.RawMessage `json:"data"`

	// broadcast delivers to every session
	broadcast bool
}

// HubMetrics tracks WebSocket metrics
type HubMetrics struct {
	ActiveConnections int64
	MessagesSent      int64
	MessagesFailed    int64
}

// Hub maintains client connections per session and fans events out to them.
// The Run loop owns the connection map; everything else talks to it over channels.
type Hub struct {
	connections map[string]map[*Client]bool // sessionID -> set of clients

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	done chan struct{}

	metricsMu sync.RWMutex
	metrics   HubMetrics

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]map[*Client]bool),
		register:    make(chan *Client, 100),
		unregister:  make(chan *Client, 100),
		broadcast:   make(chan *Message, 1000),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub shutting down")
			h.closeAllConnections()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish implements ports.EventPublisher. Events without a session go to every client.
// It never blocks the caller: a full queue drops the event.
func (h *Hub) Publish(_ context.Context, event events.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := &Message{
		Type:       event.GetEventType(),
		SessionID:  event.GetAggregateID(),
		Generation: event.GetVersion(),
		Timestamp:  event.GetTimestamp().UnixMilli(),
		Data:       data,
		broadcast:  event.GetEventType() == events.TypeVocabularyRefreshed,
	}
	if message.broadcast {
		message.SessionID = ""
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return nil
	default:
		h.recordFailed(1)
		return ErrHubFull
	}
}

// PublishBatch implements ports.EventPublisher
func (h *Hub) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := h.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// GetMetrics returns current hub metrics
func (h *Hub) GetMetrics() HubMetrics {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()
	return h.metrics
}

func (h *Hub) registerClient(client *Client) {
	if h.connections[client.sessionID] == nil {
		h.connections[client.sessionID] = make(map[*Client]bool)
	}
	h.connections[client.sessionID][client] = true

	h.metricsMu.Lock()
	h.metrics.ActiveConnections++
	h.metricsMu.Unlock()

	h.logger.Info("Client registered",
		zap.String("sessionId", client.sessionID),
		zap.String("connectionId", client.id),
		zap.Int("sessionConnections", len(h.connections[client.sessionID])),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.connections[client.sessionID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.connections, client.sessionID)
	}

	h.metricsMu.Lock()
	h.metrics.ActiveConnections--
	h.metricsMu.Unlock()

	h.logger.Info("Client unregistered",
		zap.String("sessionId", client.sessionID),
		zap.String("connectionId", client.id),
		zap.Int("remainingConnections", len(clients)),
	)
}

func (h *Hub) deliver(message *Message) {
	var targets []*Client
	if message.broadcast {
		for _, clients := range h.connections {
			for c := range clients {
				targets = append(targets, c)
			}
		}
	} else {
		for c := range h.connections[message.SessionID] {
			targets = append(targets, c)
		}
	}

	if len(targets) == 0 {
		h.logger.Debug("No active connections for event",
			zap.String("sessionId", message.SessionID),
			zap.String("messageType", message.Type),
		)
		return
	}

	// Marshal once for all clients
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message",
			zap.Error(err),
			zap.String("messageType", message.Type),
		)
		return
	}

	sent, failed := 0, 0
	for _, client := range targets {
		select {
		case client.send <- data:
			sent++
		default:
			// Slow client: drop it rather than stall every other session
			failed++
			h.logger.Warn("Closing slow client",
				zap.String("sessionId", client.sessionID),
				zap.String("connectionId", client.id),
			)
			h.unregisterClient(client)
		}
	}

	h.metricsMu.Lock()
	h.metrics.MessagesSent += int64(sent)
	h.metrics.MessagesFailed += int64(failed)
	h.metricsMu.Unlock()

	h.logger.Debug("Broadcast complete",
		zap.String("sessionId", message.SessionID),
		zap.String("messageType", message.Type),
		zap.Int("success", sent),
		zap.Int("failed", failed),
	)
}

func (h *Hub) recordFailed(n int64) {
	h.metricsMu.Lock()
	h.metrics.MessagesFailed += n
	h.metricsMu.Unlock()
}

// closeAllConnections closes every client's send channel; write pumps then close the sockets
func (h *Hub) closeAllConnections() {
	for sessionID, clients := range h.connections {
		for client := range clients {
			close(client.send)
		}
		delete(h.connections, sessionID)
	}

	h.metricsMu.Lock()
	h.metrics.ActiveConnections = 0
	h.metricsMu.Unlock()

	h.logger.Info("All connections closed")
}

// enqueue hands a client message to the hub unless it has stopped
func (h *Hub) enqueue(ch chan<- *Client, client *Client) {
	select {
	case ch <- client:
	case <-h.done:
	case <-time.After(5 * time.Second):
		h.logger.Warn("Hub did not accept client change", zap.String("connectionId", client.id))
	}
}
