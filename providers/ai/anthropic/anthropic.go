package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/observability"
)

const (
	// ProviderName is the selector value and error prefix for this backend.
	ProviderName = "anthropic"

	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 1024
)

// AnthropicProvider implements [ai.Provider] for Anthropic's Messages API.
// Use [New] to construct a ready-to-use instance.
type AnthropicProvider struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	pool       *utils.BlockingPool
	client     sdk.Client
}

var _ ai.Provider = (*AnthropicProvider)(nil)

// New returns a provider for model authenticated with apiKey. An empty model
// falls back to DefaultModel.
func New(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = DefaultModel
	}
	p := &AnthropicProvider{
		apiKey:    apiKey,
		model:     model,
		maxTokens: DefaultMaxTokens,
	}
	p.rebuildClient()
	return p
}

// WithBaseURL overrides the API base URL. Use this when targeting a proxy or
// local testing endpoint.
func (p *AnthropicProvider) WithBaseURL(baseURL string) *AnthropicProvider {
	if baseURL != "" {
		p.baseURL = baseURL
		p.rebuildClient()
	}
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) *AnthropicProvider {
	if httpClient != nil {
		p.httpClient = httpClient
		p.rebuildClient()
	}
	return p
}

// WithMaxTokens sets the response token cap. Values <= 0 are ignored.
func (p *AnthropicProvider) WithMaxTokens(maxTokens int) *AnthropicProvider {
	if maxTokens > 0 {
		p.maxTokens = maxTokens
	}
	return p
}

// WithPool sets the worker pool the blocking SDK call runs on.
func (p *AnthropicProvider) WithPool(pool *utils.BlockingPool) *AnthropicProvider {
	p.pool = pool
	return p
}

// Model returns the configured model identifier.
func (p *AnthropicProvider) Model() string {
	return p.model
}

func (p *AnthropicProvider) rebuildClient() {
	opts := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		opts = append(opts, option.WithBaseURL(p.baseURL))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	p.client = sdk.NewClient(opts...)
}

// SendMessage sends the system prompt and the rendered context as one user
// turn and concatenates the text blocks of the reply.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
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

	params := p.paramsFromGeneric(request)
	message, err := utils.RunBlocking(ctx, p.pool, func(ctx context.Context) (*sdk.Message, error) {
		return p.client.Messages.New(ctx, params)
	})
	if err != nil {
		return nil, mapError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ai.NewProviderError(ProviderName, 0, "no text content in response", nil)
	}

	return &ai.ChatResponse{
		Content: text.String(),
		Model:   p.model,
		Usage: &ai.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}, nil
}

func (p *AnthropicProvider) paramsFromGeneric(request ai.ChatRequest) sdk.MessageNewParams {
	maxTokens := p.maxTokens
	temperature := ai.DefaultTemperature
	if config := request.GenerationConfig; config != nil {
		if config.MaxTokens > 0 {
			maxTokens = config.MaxTokens
		}
		if config.Temperature > 0 {
			temperature = config.Temperature
		}
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(p.model),
		MaxTokens:   int64(maxTokens),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(request.Prompt))},
		Temperature: sdk.Float(float64(temperature)),
	}
	if request.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: request.SystemPrompt}}
	}
	return params
}

// mapError converts SDK and context failures into *ai.ProviderError.
func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		message := gjson.Get(apiErr.RawJSON(), "error.message").String()
		if message == "" {
			message = http.StatusText(apiErr.StatusCode)
		}
		return ai.NewProviderError(ProviderName, apiErr.StatusCode, message, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ai.NewProviderError(ProviderName, 0, "request timed out", err)
	}
	return ai.NewProviderError(ProviderName, 0, "request failed", err)
}
