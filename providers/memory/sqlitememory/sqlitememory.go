// Package sqlitememory implements [memory.Store] on a local SQLite file
// using the pure Go modernc.org/sqlite driver. It suits single-node
// deployments that want history to survive restarts without running a
// database server.
package sqlitememory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS chatrelay_messages (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chatrelay_messages_user_seq ON chatrelay_messages (user_id, seq);`

// SQLiteMemory implements [memory.Store] with a SQLite database.
type SQLiteMemory struct {
	db *sql.DB
}

// Compile-time check: SQLiteMemory must implement memory.Store.
var _ memory.Store = (*SQLiteMemory)(nil)

// Open opens (creating if needed) the database at path and initializes the
// schema. The caller must Close the returned store.
func Open(ctx context.Context, path string) (*SQLiteMemory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &memory.StoreError{Op: "open", Key: path, Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &memory.StoreError{Op: "open", Key: path, Err: err}
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, &memory.StoreError{Op: "open", Key: path, Err: fmt.Errorf("set pragma: %w", err)}
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, &memory.StoreError{Op: "create table", Key: path, Err: err}
	}

	return &SQLiteMemory{db: db}, nil
}

// Close releases the database handle.
func (m *SQLiteMemory) Close() error {
	return m.db.Close()
}

// Append inserts message as the newest row of userID's conversation.
func (m *SQLiteMemory) Append(ctx context.Context, userID string, message ai.Message) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceAppend(ctx, userID, message)

	_, err := m.db.ExecContext(ctx,
		`INSERT INTO chatrelay_messages (user_id, role, content) VALUES (?, ?, ?)`,
		userID, string(message.Role), message.Content,
	)
	if err != nil {
		return &memory.StoreError{Op: "append", Key: memory.Key(userID), Err: err}
	}
	return nil
}

// Recent returns the last limit messages, oldest first.
func (m *SQLiteMemory) Recent(ctx context.Context, userID string, limit int) ([]ai.Message, error) {
	if userID == "" {
		return nil, memory.ErrEmptyUserID
	}
	if limit <= 0 {
		return []ai.Message{}, nil
	}

	rows, err := m.db.QueryContext(ctx, `SELECT role, content FROM (
			SELECT seq, role, content FROM chatrelay_messages WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, userID, limit)
	if err != nil {
		return nil, &memory.StoreError{Op: "recent", Key: memory.Key(userID), Err: err}
	}
	defer rows.Close()

	messages := []ai.Message{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, &memory.StoreError{Op: "recent", Key: memory.Key(userID), Err: fmt.Errorf("scan row: %w", err)}
		}
		messages = append(messages, ai.Message{Role: ai.MessageRole(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, &memory.StoreError{Op: "recent", Key: memory.Key(userID), Err: err}
	}

	memory.TraceRecent(ctx, userID, limit, len(messages))
	return messages, nil
}

// Clear deletes every row of userID's conversation.
func (m *SQLiteMemory) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceClear(ctx, userID)

	if _, err := m.db.ExecContext(ctx, `DELETE FROM chatrelay_messages WHERE user_id = ?`, userID); err != nil {
		return &memory.StoreError{Op: "clear", Key: memory.Key(userID), Err: err}
	}
	return nil
}
