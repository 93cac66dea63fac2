package app

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/chatrelay/internal/config"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/ai/stub"
	"github.com/leofalp/chatrelay/providers/memory"
	"github.com/leofalp/chatrelay/providers/memory/inmemory"
	"github.com/leofalp/chatrelay/providers/memory/redismemory"
	"github.com/leofalp/chatrelay/providers/memory/sqlitememory"
)

func baseConfig() *config.Config {
	return &config.Config{
		AppEnv:       "test",
		Provider:     "dummy",
		StoreBackend: config.StoreMemory,
		SystemPrompt: "sys",
		HistoryLimit: 5,
		HTTPAddr:     ":0",
		LogLevel:     "DEBUG",
		LogFormat:    "text",
	}
}

func TestBuild_MemoryBackendWithStub(t *testing.T) {
	logs := &bytes.Buffer{}
	a, err := Build(context.Background(), baseConfig(), WithLogOutput(logs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &inmemory.ArrayMemory{}, a.Store)
	assert.IsType(t, &stub.Provider{}, a.Provider)
	assert.Equal(t, "dummy", a.Relay.ProviderName())
	assert.Contains(t, logs.String(), "Relay ready")

	result, err := a.Relay.Chat(context.Background(), "u1", "hi")
	require.NoError(t, err)
	assert.Contains(t, result.Reply, "hi")
	assert.Equal(t, stub.ModelName, result.Model)
}

func TestBuild_ProviderSelectorIsExact(t *testing.T) {
	cfg := baseConfig()
	cfg.Provider = "OpenAI"

	a, err := Build(context.Background(), cfg, WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &stub.Provider{}, a.Provider)
	assert.Equal(t, "OpenAI", a.Relay.ProviderName())
}

func TestBuild_CompactLogFormat(t *testing.T) {
	cfg := baseConfig()
	cfg.LogFormat = "compact"
	logs := &bytes.Buffer{}

	a, err := Build(context.Background(), cfg, WithLogOutput(logs))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Contains(t, logs.String(), `Relay ready → {"app_env":"test","provider":"dummy"`)
}

func TestBuild_RedisBackend(t *testing.T) {
	server := miniredis.RunT(t)
	host, port := server.Host(), mustPort(t, server)

	cfg := baseConfig()
	cfg.StoreBackend = config.StoreRedis
	cfg.RedisHost = host
	cfg.RedisPort = port

	a, err := Build(context.Background(), cfg, WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &redismemory.RedisMemory{}, a.Store)

	_, err = a.Relay.Chat(context.Background(), "u1", "hi")
	require.NoError(t, err)

	entries, err := server.List("chat:u1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBuild_RedisUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	port := mustPort(t, server)
	server.Close()

	cfg := baseConfig()
	cfg.StoreBackend = config.StoreRedis
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = port

	_, err := Build(context.Background(), cfg, WithLogOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, memory.ErrStore)
}

func TestBuild_SQLiteBackend(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = config.StoreSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "relay.db")

	a, err := Build(context.Background(), cfg, WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	assert.IsType(t, &sqlitememory.SQLiteMemory{}, a.Store)
	assert.NoError(t, a.Close())
}

func TestBuild_OverridesSkipSelection(t *testing.T) {
	cfg := baseConfig()
	cfg.StoreBackend = "not-used"
	store := inmemory.New()

	a, err := Build(context.Background(), cfg, WithStore(store), WithProvider(stub.New()), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Same(t, store, a.Store)
}

func mustPort(t *testing.T, server *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)
	return port
}

func TestBuild_GenerationSettingsReachProvider(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxTokens = 128
	cfg.Temperature = 0.3

	var received ai.ChatRequest
	provider := ai.ProviderFunc(func(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		received = request
		return &ai.ChatResponse{Content: "ok", Model: "m"}, nil
	})

	a, err := Build(context.Background(), cfg, WithProvider(provider), WithLogOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.Relay.Chat(context.Background(), "u1", "hi")
	require.NoError(t, err)
	require.NotNil(t, received.GenerationConfig)
	assert.Equal(t, 128, received.GenerationConfig.MaxTokens)
	assert.InDelta(t, 0.3, received.GenerationConfig.Temperature, 1e-6)
}
