// Package openai implements [ai.Provider] on top of the OpenAI chat
// completions API using github.com/sashabaranov/go-openai. Any
// OpenAI-compatible server (Azure, Ollama, OpenRouter, a local proxy) can be
// targeted with [OpenAIProvider.WithBaseURL].
//
// The SDK call is synchronous, so it is run on a [utils.BlockingPool] and the
// caller waits on either the result or ctx. Set the pool with
// [OpenAIProvider.WithPool]; without one each call gets its own goroutine.
package openai
