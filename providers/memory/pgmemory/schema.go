package pgmemory

import (
	"context"
	"fmt"

	"github.com/leofalp/chatrelay/providers/memory"
)

// createTableSQL is the DDL statement that creates the messages table.
// The seq column (BIGSERIAL) provides monotonic ordering within a
// conversation, avoiding timestamp collisions from rapid-fire messages.
const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    seq        BIGSERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// createUserSeqIndexSQL creates the lookup index used by Recent and Clear.
const createUserSeqIndexSQL = `CREATE INDEX IF NOT EXISTS %s
    ON %s (user_id, seq)`

// EnsureSchema creates the messages table and its index if they do not
// already exist.
func (m *PgMemory) EnsureSchema(ctx context.Context) error {
	tableSQL := fmt.Sprintf(createTableSQL, m.tableName)
	if _, err := m.db.Exec(ctx, tableSQL); err != nil {
		return &memory.StoreError{Op: "create table", Key: m.tableName, Err: err}
	}

	indexSQL := fmt.Sprintf(createUserSeqIndexSQL, m.indexName, m.tableName)
	if _, err := m.db.Exec(ctx, indexSQL); err != nil {
		return &memory.StoreError{Op: "create index", Key: m.tableName, Err: err}
	}

	return nil
}
