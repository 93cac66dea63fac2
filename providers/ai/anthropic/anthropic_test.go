package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
)

type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
}

func TestSendMessage_TextReply(t *testing.T) {
	var received capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("expected x-api-key header, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there\n"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 2}
		}`)
	}))
	defer server.Close()

	p := New("test-key", "").WithBaseURL(server.URL).WithPool(utils.NewBlockingPool(1))
	resp, err := p.SendMessage(context.Background(), ai.ChatRequest{
		SystemPrompt: "Be brief.",
		Prompt:       "user: hi",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "Hello there\n" {
		t.Errorf("expected concatenated text verbatim, got %q", resp.Content)
	}
	if resp.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, resp.Model)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 12 {
		t.Errorf("expected usage total 12, got %+v", resp.Usage)
	}

	if received.Model != DefaultModel {
		t.Errorf("expected request model %q, got %q", DefaultModel, received.Model)
	}
	if received.MaxTokens != DefaultMaxTokens {
		t.Errorf("expected max_tokens %d, got %d", DefaultMaxTokens, received.MaxTokens)
	}
	if len(received.System) != 1 || received.System[0].Text != "Be brief." {
		t.Errorf("unexpected system blocks %+v", received.System)
	}
	if len(received.Messages) != 1 || received.Messages[0].Role != "user" {
		t.Fatalf("expected a single user message, got %+v", received.Messages)
	}
	if len(received.Messages[0].Content) != 1 || received.Messages[0].Content[0].Text != "user: hi" {
		t.Errorf("unexpected user content %+v", received.Messages[0].Content)
	}
	if received.Temperature < 0.69 || received.Temperature > 0.71 {
		t.Errorf("expected temperature ~0.7, got %v", received.Temperature)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type": "error", "error": {"type": "invalid_request_error", "message": "max_tokens: field required"}}`)
	}))
	defer server.Close()

	_, err := New("test-key", "").WithBaseURL(server.URL).SendMessage(context.Background(), ai.ChatRequest{Prompt: "x"})

	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ai.ProviderError, got %v", err)
	}
	if providerErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", providerErr.StatusCode)
	}
	if providerErr.Message != "max_tokens: field required" {
		t.Errorf("expected API message, got %q", providerErr.Message)
	}
}

func TestSendMessage_NoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "msg_01", "type": "message", "role": "assistant", "model": "m", "content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`)
	}))
	defer server.Close()

	_, err := New("test-key", "m").WithBaseURL(server.URL).SendMessage(context.Background(), ai.ChatRequest{Prompt: "x"})
	if !errors.Is(err, ai.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	_, err := New("", "").SendMessage(context.Background(), ai.ChatRequest{Prompt: "x"})
	if !errors.Is(err, ai.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestWithMaxTokens(t *testing.T) {
	p := New("k", "m").WithMaxTokens(0)
	if p.maxTokens != DefaultMaxTokens {
		t.Errorf("expected zero to keep default, got %d", p.maxTokens)
	}

	params := p.WithMaxTokens(64).paramsFromGeneric(ai.ChatRequest{Prompt: "x"})
	if params.MaxTokens != 64 {
		t.Errorf("expected 64, got %d", params.MaxTokens)
	}
	if len(params.System) != 0 {
		t.Errorf("expected no system block for empty system prompt")
	}
}
