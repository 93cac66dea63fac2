// Package pgmemory provides a PostgreSQL-backed implementation of
// [memory.Store] for persisting conversation history across process
// restarts. One table holds every conversation; rows are scoped by user_id
// and ordered by a BIGSERIAL sequence, and queries go through pgx/v5.
//
// The main entry point is [New], which accepts any [Querier] (typically a
// *pgxpool.Pool from [Dial]). Use [PgMemory.EnsureSchema] at startup to
// create the table; production deployments may prefer dedicated migration
// tooling (goose, migrate, etc.).
package pgmemory
