package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgexplorer/infrastructure/config"
)

func writeConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	fixture, err := filepath.Abs(filepath.Join("..", "datasource", "memory", "testdata", "graph.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "dataSource: memory\nfixturePath: " + fixture + "\nlogLevel: error\n" + body
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	return cfg
}

func TestInitializeContainer_MemorySource(t *testing.T) {
	// Arrange
	cfg := writeConfig(t, "")

	// Act
	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	// Assert
	assert.Equal(t, []string{"audit"}, container.Plugins.ListPlugins())
	assert.NotEmpty(t, container.Registry.List())
	require.NoError(t, container.Source.Ping(context.Background()))

	handler := container.Router.Setup()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInitializeContainer_UnknownDefaultExplorerFallsBack(t *testing.T) {
	// Arrange
	cfg := writeConfig(t, "defaultExplorer: hologram\n")

	// Act
	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	session := container.Sessions.Create()

	// Assert
	assert.Equal(t, "force-2d", string(session.Snapshot().Explorer))
}

func TestProvideLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug", level: "debug"},
		{name: "warn", level: "warn"},
		{name: "invalid", level: "chatty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := &config.Config{LogLevel: tt.level}

			// Act
			level, err := ProvideLogLevel(cfg)

			// Assert
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, level.String())
		})
	}
}

func TestProvideDataSource_Unknown(t *testing.T) {
	// Arrange
	cfg := &config.Config{DataSource: "carrier-pigeon"}

	// Act
	source, err := ProvideDataSource(cfg, ProvideCollector(), ProvideTracer(cfg), nil)

	// Assert
	assert.Error(t, err)
	assert.Nil(t, source)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", allowed: []string{"https://app.example"}, want: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://elsewhere.example", want: true},
		{name: "listed", allowed: []string{"https://app.example"}, origin: "https://APP.example", want: true},
		{name: "not listed", allowed: []string{"https://app.example"}, origin: "https://evil.example", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			check := originChecker(tt.allowed)
			req := httptest.NewRequest(http.MethodGet, "/ws/sessions/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			// Act
			got := check(req)

			// Assert
			assert.Equal(t, tt.want, got)
		})
	}
}
