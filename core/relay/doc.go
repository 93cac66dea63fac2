// Package relay implements one chat turn end to end: it records the user's
// message, reads back a bounded slice of the conversation, renders it as
// flat text, asks the configured [ai.Provider] for a reply through a
// middleware chain, and records the reply.
//
// The primary entry point is [New], which accepts a [memory.Store], an
// [ai.Provider] and functional options ([WithProviderName],
// [WithSystemPrompt], [WithHistoryLimit], [WithMiddleware], [WithTracer]).
//
// A turn is not transactional. If the provider call fails the user message
// stays in the store and no assistant message is added.
package relay
