// Package anthropic implements [ai.Provider] for Anthropic's Messages API
// through github.com/anthropics/anthropic-sdk-go. Like the OpenAI backend,
// the synchronous SDK call runs on a [utils.BlockingPool].
package anthropic
