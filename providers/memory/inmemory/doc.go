// Package inmemory provides a concurrency-safe, map-of-slices implementation
// of [memory.Store] that keeps conversation history in process memory.
// It is meant for tests and single-process runs where persistence across
// restarts is not required. The main entry point is [New].
package inmemory
