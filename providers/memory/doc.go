// Package memory defines the [Store] interface for per-user conversation
// history. A conversation is an append-only, ordered list of [ai.Message]
// values keyed by a user identifier; readers only ever ask for a bounded
// suffix of it through [Store.Recent].
//
// Backends live in sibling packages: [inmemory] (process memory),
// [redismemory] (Redis lists, the default), [pgmemory] (PostgreSQL) and
// [sqlitememory] (a local SQLite file). All of them share the key derivation
// in [Key], the persisted record shape in [Record] and the error types
// [ErrEmptyUserID] and [*StoreError].
//
// [inmemory]: https://pkg.go.dev/github.com/leofalp/chatrelay/providers/memory/inmemory
// [redismemory]: https://pkg.go.dev/github.com/leofalp/chatrelay/providers/memory/redismemory
// [pgmemory]: https://pkg.go.dev/github.com/leofalp/chatrelay/providers/memory/pgmemory
// [sqlitememory]: https://pkg.go.dev/github.com/leofalp/chatrelay/providers/memory/sqlitememory
package memory
