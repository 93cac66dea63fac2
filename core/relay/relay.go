package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
	"github.com/leofalp/chatrelay/providers/observability"
)

const (
	// DefaultHistoryLimit is how many recent messages are rendered into the
	// provider context when WithHistoryLimit is not used.
	DefaultHistoryLimit = 5

	// DefaultSystemPrompt is the implicit instruction sent with every turn.
	DefaultSystemPrompt = "You are a helpful, concise assistant."

	// DefaultProviderName is reported in results when WithProviderName is not used.
	DefaultProviderName = "dummy"
)

// Error kinds reported by ErrorKind and recorded on spans and log lines.
const (
	ErrorKindProvider = "provider"
	ErrorKindStore    = "store"
)

// ErrInvalidInput is returned by Chat when the user id or the message is empty.
var ErrInvalidInput = errors.New("relay: user_id and message must be non-empty")

// ChatResult is the outcome of a successful turn.
type ChatResult struct {
	Reply          string `json:"reply"`
	Model          string `json:"model"`
	Provider       string `json:"provider"`
	TokensEstimate *int   `json:"tokens_estimate"`
}

// Relay runs chat turns against a store and a provider. It holds no
// per-request state and is safe for concurrent use.
type Relay struct {
	store        memory.Store
	provider     ai.Provider
	send         SendFunc
	providerName string
	systemPrompt string
	historyLimit int
	generation   *ai.GenerationConfig
	middlewares  []Middleware
	tracer       observability.Tracer
}

// Option configures a Relay.
type Option func(*Relay)

// WithProviderName sets the provider identifier reported in every ChatResult.
func WithProviderName(name string) Option {
	return func(r *Relay) {
		if name != "" {
			r.providerName = name
		}
	}
}

// WithSystemPrompt overrides DefaultSystemPrompt.
func WithSystemPrompt(prompt string) Option {
	return func(r *Relay) {
		if prompt != "" {
			r.systemPrompt = prompt
		}
	}
}

// WithHistoryLimit sets how many recent messages are rendered into the
// provider context. Values <= 0 are ignored.
func WithHistoryLimit(limit int) Option {
	return func(r *Relay) {
		if limit > 0 {
			r.historyLimit = limit
		}
	}
}

// WithGenerationConfig sets the sampling overrides sent with every turn.
// Zero fields keep the provider's own defaults; an all-zero config is ignored.
func WithGenerationConfig(config ai.GenerationConfig) Option {
	return func(r *Relay) {
		if config.MaxTokens > 0 || config.Temperature > 0 {
			r.generation = &config
		}
	}
}

// WithMiddleware appends provider middlewares. The first one given is the
// outermost wrapper.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(r *Relay) {
		for _, mw := range middlewares {
			if mw != nil {
				r.middlewares = append(r.middlewares, mw)
			}
		}
	}
}

// WithTracer sets the tracer that opens one span per turn.
func WithTracer(tracer observability.Tracer) Option {
	return func(r *Relay) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// New returns a Relay over store and provider.
func New(store memory.Store, provider ai.Provider, opts ...Option) *Relay {
	r := &Relay{
		store:        store,
		provider:     provider,
		providerName: DefaultProviderName,
		systemPrompt: DefaultSystemPrompt,
		historyLimit: DefaultHistoryLimit,
		tracer:       observability.NoopTracer{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.send = buildSendChain(provider, r.middlewares)
	return r
}

// ProviderName returns the provider identifier reported in results.
func (r *Relay) ProviderName() string {
	return r.providerName
}

// Chat runs one turn for userID:
//
//  1. append the user message
//  2. read the last N messages (N = history limit), which include it
//  3. render them and call the provider through the middleware chain
//  4. append the assistant reply
//
// Any failure aborts the turn without undoing earlier steps. Store failures
// match memory.ErrStore and provider failures match ai.ErrUpstream.
func (r *Relay) Chat(ctx context.Context, userID, message string) (result *ChatResult, err error) {
	if userID == "" || message == "" {
		return nil, ErrInvalidInput
	}

	ctx, span := r.tracer.StartSpan(ctx, observability.SpanRelayChat,
		observability.String(observability.AttrUserID, userID),
		observability.String(observability.AttrRelayProvider, r.providerName),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(observability.String(observability.AttrRelayErrorKind, ErrorKind(err)))
			span.SetStatus(observability.StatusError, "chat turn failed")
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		span.End()
	}()

	if err := r.store.Append(ctx, userID, ai.Message{Role: ai.RoleUser, Content: message}); err != nil {
		return nil, fmt.Errorf("relay: append user message: %w", err)
	}

	history, err := r.store.Recent(ctx, userID, r.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("relay: read history: %w", err)
	}

	prompt := Render(history)
	span.SetAttributes(
		observability.Int(observability.AttrHistoryLength, len(history)),
		observability.Int(observability.AttrPromptLength, len(prompt)),
	)

	response, err := r.send(ctx, ai.ChatRequest{
		SystemPrompt:     r.systemPrompt,
		Prompt:           prompt,
		History:          history,
		GenerationConfig: r.generation,
	})
	if err != nil {
		if !errors.Is(err, ai.ErrUpstream) {
			err = ai.NewProviderError(r.providerName, 0, "call failed", err)
		}
		return nil, fmt.Errorf("relay: call provider: %w", err)
	}
	if response == nil {
		return nil, fmt.Errorf("relay: call provider: %w", ai.NewProviderError(r.providerName, 0, "empty response", nil))
	}

	// The reply is stored even if the caller has gone away meanwhile, so the
	// conversation never ends on an unanswered user turn.
	if err := r.store.Append(context.WithoutCancel(ctx), userID, ai.Message{Role: ai.RoleAssistant, Content: response.Content}); err != nil {
		return nil, fmt.Errorf("relay: append assistant reply: %w", err)
	}

	span.SetAttributes(observability.Int(observability.AttrReplyLength, len(response.Content)))

	return &ChatResult{
		Reply:    response.Content,
		Model:    response.Model,
		Provider: r.providerName,
	}, nil
}

// History returns the last limit messages of userID's conversation. A limit
// <= 0 uses memory.DefaultHistoryLimit.
func (r *Relay) History(ctx context.Context, userID string, limit int) ([]ai.Message, error) {
	if limit <= 0 {
		limit = memory.DefaultHistoryLimit
	}
	messages, err := r.store.Recent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("relay: read history: %w", err)
	}
	return messages, nil
}

// Clear removes userID's conversation.
func (r *Relay) Clear(ctx context.Context, userID string) error {
	if err := r.store.Clear(ctx, userID); err != nil {
		return fmt.Errorf("relay: clear history: %w", err)
	}
	return nil
}

// ErrorKind classifies an error returned by Chat as ErrorKindProvider or
// ErrorKindStore. Other errors yield "".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ai.ErrUpstream):
		return ErrorKindProvider
	case errors.Is(err, memory.ErrStore):
		return ErrorKindStore
	default:
		return ""
	}
}
