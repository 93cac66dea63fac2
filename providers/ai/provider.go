package ai

import (
	"context"
)

// Provider is the core interface that every LLM backend must satisfy. It
// turns a rendered conversation context into a single reply.
type Provider interface {
	// SendMessage sends a chat request to the backend and returns the
	// normalized response. Returns an error (normally a *ProviderError) if the
	// backend call fails, the context is cancelled, or the response cannot be
	// turned into usable text.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func(ctx context.Context, request ChatRequest) (*ChatResponse, error)

// SendMessage calls f(ctx, request).
func (f ProviderFunc) SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	return f(ctx, request)
}
