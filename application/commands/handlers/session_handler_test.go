package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kgexplorer/application/commands"
	"kgexplorer/application/commands/bus"
	"kgexplorer/application/ports"
	"kgexplorer/application/ports/mocks"
	"kgexplorer/application/queries"
	querybus "kgexplorer/application/queries/bus"
	queryhandlers "kgexplorer/application/queries/handlers"
	"kgexplorer/application/services"
	"kgexplorer/domain/core/aggregates"
	"kgexplorer/domain/core/raw"
	"kgexplorer/domain/core/valueobjects"
	domainservices "kgexplorer/domain/services"
	apperrors "kgexplorer/pkg/errors"
)

type commandFixture struct {
	bus      *bus.CommandBus
	sessions *services.SessionManager
	source   *mocks.MockGraphDataSource
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	source := new(mocks.MockGraphDataSource)
	transform := domainservices.NewGraphTransform(1.0)
	subgraphs := queryhandlers.NewSubgraphHandler(source, transform, zap.NewNop())
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryBus.Register(queries.ConceptQuery{}, subgraphs))
	require.NoError(t, queryBus.Register(queries.SubgraphQuery{}, subgraphs))

	sessions := services.NewSessionManager(services.OrchestratorDeps{
		Queries: queryBus,
		Logger:  zap.NewNop(),
	}, "force-2d", time.Hour)
	t.Cleanup(sessions.Close)

	vocabulary := services.NewVocabularyService(source, newNoCache(), 0, nil, nil, zap.NewNop())

	commandBus := bus.NewCommandBus(bus.RecoveryMiddleware(zap.NewNop()), bus.LoggingMiddleware(zap.NewNop()))
	require.NoError(t, NewSessionHandler(sessions, zap.NewNop()).Register(commandBus))
	require.NoError(t, commandBus.Register(commands.RefreshVocabularyCommand{}, NewVocabularyHandler(vocabulary, zap.NewNop())))

	return &commandFixture{bus: commandBus, sessions: sessions, source: source}
}

// noCache never stores anything
type noCache struct{}

func newNoCache() noCache { return noCache{} }

func (noCache) Get(context.Context, string) (interface{}, bool)     { return nil, false }
func (noCache) Set(context.Context, string, interface{}, int) error { return nil }
func (noCache) Delete(context.Context, string) error                { return nil }
func (noCache) Clear(context.Context) error                         { return nil }

func (f *commandFixture) createSession(t *testing.T) string {
	t.Helper()
	result, err := f.bus.Dispatch(context.Background(), commands.CreateSessionCommand{})
	require.NoError(t, err)
	return result.(services.SessionSnapshot).ID
}

func TestSessionHandler_SetSearch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newCommandFixture(t)
	f.source.On("GetSubgraph", mock.Anything, "C1", 1, 500).Return(
		&raw.Graph{Nodes: []raw.Node{{ConceptID: "C1"}}}, nil)
	id := f.createSession(t)

	// Act
	result, err := f.bus.Dispatch(ctx, commands.SetSearchCommand{
		SessionID: id,
		Params:    valueobjects.ConceptSearch("C1", valueobjects.LoadModeClean),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, commands.SearchAccepted{SessionID: id, Generation: 1}, result)

	o, err := f.sessions.Get(id)
	require.NoError(t, err)
	o.Wait()
	assert.Equal(t, 1, o.Graph().NodeCount())
}

func TestSessionHandler_Validation(t *testing.T) {
	f := newCommandFixture(t)

	tests := []struct {
		name string
		cmd  bus.Command
	}{
		{name: "missing session", cmd: commands.ClearSearchCommand{}},
		{name: "navigate without node", cmd: commands.NavigateCommand{SessionID: "s", Action: commands.NavigateTo}},
		{name: "focus without node", cmd: commands.NavigateCommand{SessionID: "s", Action: commands.NavigateFocus}},
		{name: "unknown action", cmd: commands.NavigateCommand{SessionID: "s", Action: "sideways"}},
		{name: "negative depth", cmd: commands.FollowConceptCommand{SessionID: "s", NodeID: "n", Depth: -1}},
		{name: "explorer without type", cmd: commands.SelectExplorerCommand{SessionID: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, err := f.bus.Dispatch(context.Background(), tt.cmd)

			// Assert
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestSessionHandler_UnknownSession(t *testing.T) {
	// Arrange
	f := newCommandFixture(t)

	// Act
	_, err := f.bus.Dispatch(context.Background(), commands.NavigateCommand{
		SessionID: "missing",
		Action:    commands.NavigateBack,
	})

	// Assert
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionHandler_Navigate(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newCommandFixture(t)
	id := f.createSession(t)

	for _, node := range []string{"a", "b"} {
		_, err := f.bus.Dispatch(ctx, commands.NavigateCommand{SessionID: id, Action: commands.NavigateTo, NodeID: node})
		require.NoError(t, err)
	}

	// Act
	result, err := f.bus.Dispatch(ctx, commands.NavigateCommand{SessionID: id, Action: commands.NavigateBack})

	// Assert
	require.NoError(t, err)
	nav := result.(aggregates.NavigationSnapshot)
	assert.Equal(t, 0, nav.HistoryIndex)
	assert.Equal(t, "a", nav.FocusedNodeID.String())
	assert.True(t, nav.CanGoForward)
}

func TestSessionHandler_DeleteSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newCommandFixture(t)
	id := f.createSession(t)

	// Act
	err := f.bus.Send(ctx, commands.DeleteSessionCommand{SessionID: id})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, f.sessions.Count())
}

func TestVocabularyHandler_Refresh(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newCommandFixture(t)
	f.source.On("RefreshVocabularyCategories", ctx, ports.RefreshOptions{OnlyComputed: true}).Return(nil)
	f.source.On("GetVocabularyTypes", ctx, ports.VocabularyOptions{}).Return(&raw.VocabularyTypes{
		Types: []raw.VocabularyType{{RelationshipType: "causes"}, {RelationshipType: "enables"}},
	}, nil)

	// Act
	result, err := f.bus.Dispatch(ctx, commands.RefreshVocabularyCommand{OnlyComputed: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, commands.VocabularyRefreshed{TypeCount: 2}, result)
}
