package pgmemory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
)

// defaultTableName is the PostgreSQL table used when no custom name is provided.
const defaultTableName = "chatrelay_messages"

// Querier abstracts the pgx query methods needed by PgMemory.
// Both *pgxpool.Pool and pgx.Tx satisfy this interface, allowing
// callers to inject either a connection pool or a single transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Dial opens a connection pool for dsn and pings it. The caller owns the
// pool and must Close it.
func Dial(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &memory.StoreError{Op: "connect", Key: "postgres", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &memory.StoreError{Op: "ping", Key: "postgres", Err: err}
	}
	return pool, nil
}

// PgMemory implements [memory.Store] with PostgreSQL persistence.
// Thread safety is handled by the underlying pgx connection pool; no
// application-level mutex is needed.
type PgMemory struct {
	db        Querier
	tableName string
	indexName string
}

// Compile-time check: PgMemory must implement memory.Store.
var _ memory.Store = (*PgMemory)(nil)

// Option configures optional PgMemory behavior.
type Option func(*PgMemory)

// WithTableName overrides the default table name ("chatrelay_messages").
// The name is sanitized via pgx.Identifier to prevent SQL injection,
// since it is interpolated into queries via fmt.Sprintf.
func WithTableName(name string) Option {
	return func(m *PgMemory) {
		m.tableName = pgx.Identifier{name}.Sanitize()
		m.indexName = pgx.Identifier{"idx_" + name + "_user_seq"}.Sanitize()
	}
}

// New creates a PostgreSQL-backed store. The db parameter must be a
// pgx-compatible query executor (typically *pgxpool.Pool).
func New(db Querier, opts ...Option) *PgMemory {
	pgMemory := &PgMemory{
		db:        db,
		tableName: defaultTableName,
		indexName: "idx_" + defaultTableName + "_user_seq",
	}
	for _, opt := range opts {
		opt(pgMemory)
	}
	return pgMemory
}

// Append inserts message as the newest row of userID's conversation.
func (m *PgMemory) Append(ctx context.Context, userID string, message ai.Message) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceAppend(ctx, userID, message)

	query := fmt.Sprintf(`INSERT INTO %s (user_id, role, content) VALUES ($1, $2, $3)`, m.tableName)
	if _, err := m.db.Exec(ctx, query, userID, string(message.Role), message.Content); err != nil {
		return &memory.StoreError{Op: "append", Key: memory.Key(userID), Err: err}
	}
	return nil
}

// Recent returns the last limit messages in chronological order: the
// subquery fetches the newest rows (ORDER BY seq DESC LIMIT n) and the outer
// query re-orders them oldest-first.
func (m *PgMemory) Recent(ctx context.Context, userID string, limit int) ([]ai.Message, error) {
	if userID == "" {
		return nil, memory.ErrEmptyUserID
	}
	if limit <= 0 {
		return []ai.Message{}, nil
	}

	query := fmt.Sprintf(`SELECT role, content FROM (
			SELECT seq, role, content FROM %s WHERE user_id = $1 ORDER BY seq DESC LIMIT $2
		) sub ORDER BY sub.seq ASC`, m.tableName)

	rows, err := m.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, &memory.StoreError{Op: "recent", Key: memory.Key(userID), Err: err}
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, &memory.StoreError{Op: "recent", Key: memory.Key(userID), Err: err}
	}

	memory.TraceRecent(ctx, userID, limit, len(messages))
	return messages, nil
}

// Clear deletes every row of userID's conversation.
func (m *PgMemory) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceClear(ctx, userID)

	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, m.tableName)
	if _, err := m.db.Exec(ctx, query, userID); err != nil {
		return &memory.StoreError{Op: "clear", Key: memory.Key(userID), Err: err}
	}
	return nil
}

// scanMessages iterates over pgx.Rows and returns a slice of ai.Message.
// Returns an empty non-nil slice when no rows are present.
func scanMessages(rows pgx.Rows) ([]ai.Message, error) {
	messages := []ai.Message{}

	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		messages = append(messages, ai.Message{Role: ai.MessageRole(role), Content: content})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return messages, nil
}
