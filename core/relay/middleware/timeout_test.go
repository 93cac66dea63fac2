package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leofalp/chatrelay/providers/ai"
)

// ========== Helpers ==========

// makeSendFunc returns a SendFunc that sleeps for the given duration before
// returning, simulating a slow provider.
func makeSendFunc(sleep time.Duration, resp *ai.ChatResponse, err error) func(context.Context, ai.ChatRequest) (*ai.ChatResponse, error) {
	return func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		select {
		case <-time.After(sleep):
			return resp, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TestTimeoutMiddleware_CompletesBeforeTimeout verifies that a fast provider
// returns its response successfully.
func TestTimeoutMiddleware_CompletesBeforeTimeout(t *testing.T) {
	fast := makeSendFunc(0, &ai.ChatResponse{Content: "ok"}, nil)

	chain := NewTimeoutMiddleware(100 * time.Millisecond)(fast)

	resp, err := chain(context.Background(), ai.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Content)
	}
}

// TestTimeoutMiddleware_ExceedsTimeout verifies that a slow provider causes
// the middleware to return a DeadlineExceeded error.
func TestTimeoutMiddleware_ExceedsTimeout(t *testing.T) {
	slow := makeSendFunc(200*time.Millisecond, nil, nil)

	chain := NewTimeoutMiddleware(20 * time.Millisecond)(slow)

	_, err := chain(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

// TestTimeoutMiddleware_ParentDeadlineWins verifies that a shorter caller
// deadline is not extended.
func TestTimeoutMiddleware_ParentDeadlineWins(t *testing.T) {
	var deadline time.Time
	next := func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		deadline, _ = ctx.Deadline()
		return &ai.ChatResponse{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	parent, _ := ctx.Deadline()

	if _, err := NewTimeoutMiddleware(time.Hour)(next)(ctx, ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deadline.Equal(parent) {
		t.Errorf("expected parent deadline %v, got %v", parent, deadline)
	}
}

// TestTimeoutMiddleware_DisabledIsPassThrough verifies that a zero timeout
// adds no deadline.
func TestTimeoutMiddleware_DisabledIsPassThrough(t *testing.T) {
	next := func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline")
		}
		return &ai.ChatResponse{}, nil
	}

	if _, err := NewTimeoutMiddleware(0)(next)(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
