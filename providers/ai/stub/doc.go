// Package stub provides a deterministic, network-free [ai.Provider] that
// echoes its prompt. It backs the default "dummy" configuration and tests.
package stub
