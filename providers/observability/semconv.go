package observability

// Semantic conventions for span names, events and attributes used by the
// relay, its providers and its stores.

// --- Span names ---

const (
	// SpanRelayChat covers one full chat turn (append, history, provider call, append).
	SpanRelayChat = "relay.chat"
)

// --- Relay attributes ---

const (
	AttrUserID         = "relay.user_id"
	AttrHistoryLength  = "relay.history.length"
	AttrPromptLength   = "relay.prompt.length"
	AttrReplyLength    = "relay.reply.length"
	AttrRelayProvider  = "relay.provider"
	AttrRelayErrorKind = "relay.error.kind"
	AttrStatus         = "status"
	AttrStatusDesc     = "status.description"
)

// --- LLM provider attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai", "hf")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4o-mini")
	AttrLLMModel = "llm.model"

	// AttrLLMResponseShape records which normalization branch produced the reply
	AttrLLMResponseShape = "llm.response.shape"
)

// --- HTTP attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPURL              = "http.url"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Memory attributes and events ---

const (
	AttrMemoryKey           = "memory.key"
	AttrMemoryMessageRole   = "memory.message.role"
	AttrMemoryMessageLength = "memory.message.length"
	AttrMemoryLimit         = "memory.limit"
	AttrMemoryReturned      = "memory.returned"

	EventMemoryAppend = "memory.append"
	EventMemoryRecent = "memory.recent"
	EventMemoryClear  = "memory.clear"
)
