// Package factory selects and builds the [ai.Provider] named by
// configuration.
package factory

import (
	"log/slog"

	"github.com/leofalp/chatrelay/internal/utils"
	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/ai/anthropic"
	"github.com/leofalp/chatrelay/providers/ai/huggingface"
	"github.com/leofalp/chatrelay/providers/ai/openai"
	"github.com/leofalp/chatrelay/providers/ai/stub"
)

// Settings carries everything any backend may need. Only the fields of the
// selected backend are read.
type Settings struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	HFAPIKey       string
	HFModel        string
	HFBaseURL      string
	HFMaxNewTokens int
	HFTemperature  float32

	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	// Pool runs blocking SDK calls. May be nil.
	Pool *utils.BlockingPool
}

// New returns the provider selected by settings.Provider. Exactly "openai",
// "hf" and "anthropic" select the hosted backends; any other value, including
// case or whitespace variants and the empty string, selects the stub.
func New(settings Settings, logger *slog.Logger) ai.Provider {
	if logger == nil {
		logger = slog.Default()
	}

	switch settings.Provider {
	case openai.ProviderName:
		return openai.New(settings.OpenAIAPIKey, settings.OpenAIModel).
			WithBaseURL(settings.OpenAIBaseURL).
			WithPool(settings.Pool)
	case huggingface.ProviderName:
		return huggingface.New(settings.HFAPIKey, settings.HFModel).
			WithBaseURL(settings.HFBaseURL).
			WithGenerationBudget(settings.HFMaxNewTokens, settings.HFTemperature)
	case anthropic.ProviderName:
		return anthropic.New(settings.AnthropicAPIKey, settings.AnthropicModel).
			WithMaxTokens(settings.AnthropicMaxTokens).
			WithPool(settings.Pool)
	default:
		logger.Debug("Using stub provider", slog.String("provider", settings.Provider))
		return stub.New()
	}
}
