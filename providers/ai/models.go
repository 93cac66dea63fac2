package ai

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest is what the relay hands to a provider for a single turn.
type ChatRequest struct {
	SystemPrompt     string            `json:"system_prompt,omitempty"`     // Implicit system instruction
	Prompt           string            `json:"prompt"`                      // Rendered conversation context, role-prefixed lines
	History          []Message         `json:"history,omitempty"`           // Bounded history the prompt was rendered from
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"` // Optional generation overrides
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type GenerationConfig struct {
	MaxTokens   int     `json:"max_tokens,omitempty"`  // Optional max tokens for the response
	Temperature float32 `json:"temperature,omitempty"` // Sampling temperature [0..2]. Higher => more random; lower => more deterministic.
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the normalized reply of a provider
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   *Usage `json:"usage,omitempty"`
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // llm response
)

// DefaultTemperature is the sampling temperature used when a request carries no override.
const DefaultTemperature float32 = 0.7
