package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/chatrelay/core/relay"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/ai/stub"
	"github.com/leofalp/chatrelay/providers/memory"
	"github.com/leofalp/chatrelay/providers/memory/inmemory"
)

type testEnv struct {
	store   *inmemory.ArrayMemory
	handler http.Handler
	server  *httptest.Server
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T, provider ai.Provider, opts ...relay.Option) *testEnv {
	t.Helper()
	store := inmemory.New()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	handler := NewServer(relay.New(store, provider, opts...), logger).Handler()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testEnv{store: store, handler: handler, server: server, logs: logs}
}

// serveLocal runs the handler in-process so log output is complete on return.
func (e *testEnv) serveLocal(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) postChat(t *testing.T, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, stub.New(), relay.WithProviderName("hf"))

	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, HealthResponse{Status: "ok", Provider: "hf"}, body)
}

func TestHealth_WrongMethod(t *testing.T) {
	env := newTestEnv(t, stub.New())

	resp, err := http.Post(env.server.URL+"/health", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestChat_StubReply(t *testing.T) {
	env := newTestEnv(t, stub.New())

	resp, data := env.postChat(t, `{"user_id":"u1","message":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw["reply"], "hi")
	assert.Equal(t, stub.ModelName, raw["model"])
	assert.Equal(t, relay.DefaultProviderName, raw["provider"])
	assert.Contains(t, raw, "tokens_estimate")
	assert.Nil(t, raw["tokens_estimate"])

	history, err := env.store.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ai.RoleUser, history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, ai.RoleAssistant, history[1].Role)
}

func TestChat_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "malformed json", body: `{"user_id":`, detail: "invalid request body"},
		{name: "wrong type", body: `{"user_id": 7, "message": "hi"}`, detail: "invalid request body"},
		{name: "missing user id", body: `{"message":"hi"}`, detail: "user_id"},
		{name: "empty user id", body: `{"user_id":"","message":"hi"}`, detail: "user_id"},
		{name: "missing message", body: `{"user_id":"u1"}`, detail: "message"},
		{name: "empty message", body: `{"user_id":"u1","message":""}`, detail: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, stub.New())

			resp, data := env.postChat(t, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Contains(t, body.Detail, tt.detail)

			assert.Equal(t, 0, env.store.Count("u1"))
		})
	}
}

func TestChat_ProviderFailureIs502(t *testing.T) {
	failing := ai.ProviderFunc(func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, ai.NewProviderError("hf", 503, "model loading", nil)
	})
	env := newTestEnv(t, failing, relay.WithProviderName("hf"))

	rec := env.serveLocal(httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"u1","message":"hi"}`)))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "model loading")
	assert.Contains(t, env.logs.String(), "error_kind=provider")

	// The user turn is stored before the provider is called.
	assert.Equal(t, 1, env.store.Count("u1"))
}

type brokenStore struct {
	memory.Store
}

func (brokenStore) Append(_ context.Context, userID string, _ ai.Message) error {
	return &memory.StoreError{Op: "append", Key: memory.Key(userID), Err: errors.New("connection refused")}
}

func TestChat_StoreFailureIs502(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	s := NewServer(relay.New(brokenStore{Store: inmemory.New()}, stub.New()), logger)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"user_id":"u1","message":"hi"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, logs.String(), "error_kind=store")
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t, stub.New())

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type, x-custom")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "content-type, x-custom", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	env := newTestEnv(t, stub.New())

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, stub.New())

	t.Run("echoes caller id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set(RequestIDHeader, "req-123")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	})

	t.Run("generates id", func(t *testing.T) {
		resp, err := http.Get(env.server.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	handler := Chain(RequestIDMiddleware(), RecoveryMiddleware(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "Handler panic")
	assert.Contains(t, logs.String(), "boom")
}

func TestLoggingMiddleware(t *testing.T) {
	env := newTestEnv(t, stub.New())

	env.serveLocal(httptest.NewRequest(http.MethodGet, "/health", nil))

	out := env.logs.String()
	assert.Contains(t, out, "HTTP request")
	assert.Contains(t, out, "path=/health")
	assert.Contains(t, out, "status=200")
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mark("first"), mark("second"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(relay.New(inmemory.New(), stub.New()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
