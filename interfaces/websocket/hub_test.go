package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/application/services"
	"kgexplorer/domain/events"
	apperrors "kgexplorer/pkg/errors"
)

type wsFixture struct {
	hub      *Hub
	sessions *services.SessionManager
	server   *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	sessions := services.NewSessionManager(services.OrchestratorDeps{Publisher: hub, Logger: zap.NewNop()}, "force-2d", time.Hour)
	t.Cleanup(sessions.Close)

	ws := NewServer(hub, sessions, nil, apperrors.NewErrorHandler(zap.NewNop(), false), zap.NewNop())
	router := chi.NewRouter()
	router.Get("/sessions/{sessionID}/events", ws.HandleEvents)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{hub: hub, sessions: sessions, server: server}
}

func (f *wsFixture) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/sessions/" + sessionID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitForConnections(t *testing.T, hub *Hub, n int64) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetMetrics().ActiveConnections == n }, 5*time.Second, 10*time.Millisecond)
}

func TestServer_HandleEvents_SendsSnapshotFirst(t *testing.T) {
	// Arrange
	f := newWSFixture(t)
	id := f.sessions.Create().Snapshot().ID

	// Act
	conn := f.dial(t, id)
	msg := readMessage(t, conn)

	// Assert
	assert.Equal(t, "session.snapshot", msg.Type)
	assert.Equal(t, id, msg.SessionID)
	var snap services.SessionSnapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, services.StatusIdle, snap.Status)
}

func TestServer_HandleEvents_UnknownSession(t *testing.T) {
	// Arrange
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/sessions/missing/events"

	// Act
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	// Assert
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHub_Publish_RoutesBySession(t *testing.T) {
	// Arrange
	f := newWSFixture(t)
	first := f.sessions.Create()
	second := f.sessions.Create()
	connFirst := f.dial(t, first.Snapshot().ID)
	connSecond := f.dial(t, second.Snapshot().ID)
	readMessage(t, connFirst)
	readMessage(t, connSecond)
	waitForConnections(t, f.hub, 2)

	// Act
	_, err := first.NavigateToNode(context.Background(), "C1")
	require.NoError(t, err)
	require.NoError(t, f.hub.Publish(context.Background(), events.NewVocabularyRefreshed(7, time.Now())))

	// Assert
	nav := readMessage(t, connFirst)
	assert.Equal(t, events.TypeNavigationChanged, nav.Type)
	assert.Equal(t, first.Snapshot().ID, nav.SessionID)

	assert.Equal(t, events.TypeVocabularyRefreshed, readMessage(t, connFirst).Type)
	vocab := readMessage(t, connSecond)
	assert.Equal(t, events.TypeVocabularyRefreshed, vocab.Type, "the second session only sees the broadcast")
	assert.Empty(t, vocab.SessionID)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	// Arrange
	f := newWSFixture(t)
	id := f.sessions.Create().Snapshot().ID
	conn := f.dial(t, id)
	readMessage(t, conn)
	waitForConnections(t, f.hub, 1)

	// Act
	require.NoError(t, conn.Close())

	// Assert
	waitForConnections(t, f.hub, 0)
}

func TestHub_Publish_AfterStopIsDropped(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)
	cancel()
	<-hub.Done()

	// Act
	err := hub.Publish(context.Background(), events.NewVocabularyRefreshed(1, time.Now()))

	// Assert
	assert.NoError(t, err)
}
