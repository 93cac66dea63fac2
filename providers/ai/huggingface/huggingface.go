package huggingface

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/observability"
)

const (
	// ProviderName is the selector value and error prefix for this backend.
	ProviderName = "hf"

	defaultBaseURL      = "https://api-inference.huggingface.co"
	DefaultModel        = "HuggingFaceH4/zephyr-7b-beta"
	DefaultMaxNewTokens = 256

	// RequestTimeout bounds every inference call, connection setup included.
	RequestTimeout = 60 * time.Second
)

// HuggingFaceProvider implements [ai.Provider] for the Hugging Face
// Inference API (and any text-generation endpoint speaking the same
// inputs/parameters protocol).
type HuggingFaceProvider struct {
	apiKey       string
	model        string
	baseURL      string
	client       *http.Client
	maxNewTokens int
	temperature  float32
}

var _ ai.Provider = (*HuggingFaceProvider)(nil)

// New returns a provider for model authenticated with apiKey. An empty
// model falls back to DefaultModel.
func New(apiKey, model string) *HuggingFaceProvider {
	if model == "" {
		model = DefaultModel
	}
	return &HuggingFaceProvider{
		apiKey:       apiKey,
		model:        model,
		baseURL:      defaultBaseURL,
		client:       &http.Client{Timeout: RequestTimeout},
		maxNewTokens: DefaultMaxNewTokens,
		temperature:  ai.DefaultTemperature,
	}
}

// WithBaseURL overrides the API base URL. Use this for dedicated inference
// endpoints, proxies, or test servers.
func (p *HuggingFaceProvider) WithBaseURL(baseURL string) *HuggingFaceProvider {
	if baseURL != "" {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
	return p
}

// WithHttpClient replaces the HTTP client. The client should keep a timeout;
// the 60 second request deadline is applied through the context regardless.
func (p *HuggingFaceProvider) WithHttpClient(httpClient *http.Client) *HuggingFaceProvider {
	if httpClient != nil {
		p.client = httpClient
	}
	return p
}

// WithGenerationBudget sets max_new_tokens and temperature. Zero values keep
// the current setting.
func (p *HuggingFaceProvider) WithGenerationBudget(maxNewTokens int, temperature float32) *HuggingFaceProvider {
	if maxNewTokens > 0 {
		p.maxNewTokens = maxNewTokens
	}
	if temperature > 0 {
		p.temperature = temperature
	}
	return p
}

// Model returns the configured model identifier.
func (p *HuggingFaceProvider) Model() string {
	return p.model
}

func (p *HuggingFaceProvider) endpoint() string {
	return p.baseURL + "/models/" + p.model
}

// SendMessage flattens the request into a single prompt, posts it to the
// inference endpoint and normalizes whatever comes back (see NormalizeResponse).
// Non-2xx statuses, transport errors and the 60 second timeout are reported
// as *ai.ProviderError, as is a generated_text that is not a string. Unknown
// response shapes are not errors.
func (p *HuggingFaceProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMModel, p.model),
		)
	}

	payload := inferenceRequest{
		Inputs:     BuildPrompt(request.SystemPrompt, request.Prompt),
		Parameters: p.parameters(request.GenerationConfig),
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, body, err := utils.DoPostRaw(ctx, p.client, p.endpoint(), p.apiKey, payload)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) {
			return nil, ai.NewProviderError(ProviderName, statusErr.StatusCode, statusErr.Body, nil)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ai.NewProviderError(ProviderName, 0, "request timed out", err)
		}
		return nil, ai.NewProviderError(ProviderName, 0, "request failed", err)
	}

	text, shape := NormalizeResponse(body)
	if span != nil {
		span.AddEvent("llm.response.normalized",
			observability.String(observability.AttrLLMResponseShape, string(shape)),
		)
	}
	if shape == ShapeInvalid {
		return nil, ai.NewProviderError(ProviderName, 0, "generated_text is not a string", nil)
	}

	return &ai.ChatResponse{
		Content: text,
		Model:   p.model,
	}, nil
}

func (p *HuggingFaceProvider) parameters(config *ai.GenerationConfig) inferenceParameters {
	params := inferenceParameters{
		MaxNewTokens: p.maxNewTokens,
		Temperature:  p.temperature,
	}
	if config != nil {
		if config.MaxTokens > 0 {
			params.MaxNewTokens = config.MaxTokens
		}
		if config.Temperature > 0 {
			params.Temperature = config.Temperature
		}
	}
	return params
}

// BuildPrompt renders the single flattened prompt sent as "inputs".
func BuildPrompt(systemPrompt, prompt string) string {
	return systemPrompt + "\nUser: " + prompt + "\n" + AssistantMarker
}
