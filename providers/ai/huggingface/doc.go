// Package huggingface implements [ai.Provider] for the Hugging Face Inference
// API. The conversation is flattened into one prompt
// ("<system>\nUser: <context>\nAssistant:"), posted with bearer auth and a 60
// second timeout, and the response is normalized by [NormalizeResponse],
// which recognizes a closed set of shapes and falls back to the raw body.
package huggingface
