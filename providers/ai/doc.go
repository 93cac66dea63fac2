// Package ai defines the shared, provider-agnostic types used by every LLM
// backend the relay can talk to (stub, OpenAI, Hugging Face, Anthropic).
// Each backend package maps [ChatRequest] to its own wire format and
// normalizes whatever the backend returns into a [ChatResponse], keeping the
// relay decoupled from provider-specific details.
//
// Backend failures are reported as [*ProviderError], which always matches
// [ErrUpstream] under errors.Is.
package ai
