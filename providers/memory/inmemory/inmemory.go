package inmemory

import (
	"context"
	"sync"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
)

// ArrayMemory is a simple, concurrency-safe in-memory conversation store.
// It uses RWMutex to guard access and is efficient for read-heavy workloads.
type ArrayMemory struct {
	mu            sync.RWMutex
	conversations map[string][]ai.Message
}

// New returns a new, empty [ArrayMemory] ready for immediate use.
func New() *ArrayMemory {
	return &ArrayMemory{
		conversations: make(map[string][]ai.Message),
	}
}

// Ensure ArrayMemory implements memory.Store at compile time.
var _ memory.Store = (*ArrayMemory)(nil)

// Append stores a copy of message at the end of userID's conversation.
func (m *ArrayMemory) Append(ctx context.Context, userID string, message ai.Message) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceAppend(ctx, userID, message)

	m.mu.Lock()
	m.conversations[userID] = append(m.conversations[userID], message)
	m.mu.Unlock()
	return nil
}

// Recent returns up to the last limit messages as a new, independent slice.
// If limit exceeds the conversation length, all messages are returned.
// Returns an empty, non-nil slice when limit is zero or negative, or when the
// user has no history.
func (m *ArrayMemory) Recent(ctx context.Context, userID string, limit int) ([]ai.Message, error) {
	if userID == "" {
		return nil, memory.ErrEmptyUserID
	}
	if limit <= 0 {
		return []ai.Message{}, nil
	}

	m.mu.RLock()
	messages := m.conversations[userID]
	n := min(limit, len(messages))
	out := make([]ai.Message, n)
	copy(out, messages[len(messages)-n:])
	m.mu.RUnlock()

	memory.TraceRecent(ctx, userID, limit, len(out))
	return out, nil
}

// Clear drops userID's conversation.
func (m *ArrayMemory) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceClear(ctx, userID)

	m.mu.Lock()
	delete(m.conversations, userID)
	m.mu.Unlock()
	return nil
}

// Count returns the number of messages stored for userID.
func (m *ArrayMemory) Count(userID string) int {
	m.mu.RLock()
	n := len(m.conversations[userID])
	m.mu.RUnlock()
	return n
}
