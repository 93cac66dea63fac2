package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/observability"
)

const (
	// ProviderName is the selector value and error prefix for this backend.
	ProviderName = "openai"

	DefaultModel = "gpt-4o-mini"
)

// OpenAIProvider implements the Provider interface for the OpenAI chat
// completions API.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	pool       *utils.BlockingPool
	client     *goopenai.Client
}

var _ ai.Provider = (*OpenAIProvider)(nil)

// New creates a provider for model authenticated with apiKey. An empty model
// falls back to DefaultModel.
func New(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultModel
	}
	p := &OpenAIProvider{
		apiKey: apiKey,
		model:  model,
	}
	p.rebuildClient()
	return p
}

// WithBaseURL sets the base URL for the API, e.g. "http://localhost:11434/v1".
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	if baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
		p.rebuildClient()
	}
	return p
}

// WithHttpClient sets a custom HTTP client
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	if httpClient != nil {
		p.httpClient = httpClient
		p.rebuildClient()
	}
	return p
}

// WithPool sets the worker pool the blocking SDK call runs on.
func (p *OpenAIProvider) WithPool(pool *utils.BlockingPool) *OpenAIProvider {
	p.pool = pool
	return p
}

// Model returns the configured model identifier.
func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) rebuildClient() {
	config := goopenai.DefaultConfig(p.apiKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		config.HTTPClient = p.httpClient
	}
	p.client = goopenai.NewClientWithConfig(config)
}

// SendMessage implements the Provider interface. It sends the system prompt
// followed by the rendered context as a single user message and returns the
// first choice.
func (p *OpenAIProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMModel, p.model),
		)
	}

	if p.apiKey == "" {
		return nil, ai.NewProviderError(ProviderName, 0, "API key is not set", nil)
	}

	completionRequest := p.requestFromGeneric(request)
	resp, err := utils.RunBlocking(ctx, p.pool, func(ctx context.Context) (goopenai.ChatCompletionResponse, error) {
		return p.client.CreateChatCompletion(ctx, completionRequest)
	})
	if err != nil {
		return nil, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, ai.NewProviderError(ProviderName, 0, "no choices in response", nil)
	}

	return &ai.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   p.model,
		Usage: &ai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) requestFromGeneric(request ai.ChatRequest) goopenai.ChatCompletionRequest {
	out := goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: request.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: request.Prompt},
		},
		Temperature: ai.DefaultTemperature,
	}
	if config := request.GenerationConfig; config != nil {
		if config.Temperature > 0 {
			out.Temperature = config.Temperature
		}
		if config.MaxTokens > 0 {
			out.MaxTokens = config.MaxTokens
		}
	}
	return out
}

// mapError converts SDK and context failures into *ai.ProviderError.
func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return ai.NewProviderError(ProviderName, apiErr.HTTPStatusCode, apiErr.Message, nil)
	}

	var requestErr *goopenai.RequestError
	if errors.As(err, &requestErr) {
		return ai.NewProviderError(ProviderName, requestErr.HTTPStatusCode, "request rejected", requestErr.Err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ai.NewProviderError(ProviderName, 0, "request timed out", err)
	}
	return ai.NewProviderError(ProviderName, 0, "request failed", err)
}
