package stub

import (
	"context"
	"fmt"

	"github.com/leofalp/chatrelay/providers/ai"
)

// ModelName is the synthetic model identifier reported by the stub.
const ModelName = "dummy-echo"

// Provider echoes the prompt back without touching the network. It is the
// default backend and the fallback for unknown provider names.
type Provider struct{}

// New returns a stub provider.
func New() *Provider {
	return &Provider{}
}

var _ ai.Provider = (*Provider)(nil)

// SendMessage always succeeds, returning the prompt wrapped in a fixed phrase.
func (p *Provider) SendMessage(_ context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	return &ai.ChatResponse{
		Content: fmt.Sprintf("(stub) You said: %s. I'm live and wired for Phase 1.", request.Prompt),
		Model:   ModelName,
	}, nil
}
