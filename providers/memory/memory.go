package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/observability"
)

// DefaultHistoryLimit is the number of messages returned when a caller does
// not choose a limit.
const DefaultHistoryLimit = 10

// KeyPrefix is prepended to the user identifier to form the storage key.
const KeyPrefix = "chat:"

// Store persists per-user conversation history.
//
// Implementations must be safe for concurrent use. Messages are copied on
// append and on read; callers never share backing storage with the store.
type Store interface {
	// Append adds message to the end of userID's conversation.
	Append(ctx context.Context, userID string, message ai.Message) error

	// Recent returns at most limit of the most recent messages, oldest
	// first. Unknown users and limit <= 0 yield an empty, non-nil slice.
	Recent(ctx context.Context, userID string, limit int) ([]ai.Message, error)

	// Clear removes userID's whole conversation. Clearing an unknown user
	// is not an error.
	Clear(ctx context.Context, userID string) error
}

// ErrEmptyUserID is returned by every Store operation called with an empty
// user identifier. No backend call is made.
var ErrEmptyUserID = errors.New("memory: empty user id")

// ErrStore is matched by every *StoreError via errors.Is.
var ErrStore = errors.New("conversation store error")

// StoreError reports a failed backend operation.
type StoreError struct {
	Op  string // "append", "recent", "clear", ...
	Key string // storage key, see Key
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("memory: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrStore) hold for every StoreError.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// Key returns the storage key for userID.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Record is the persisted shape of a message, e.g.
// {"role": "user", "message": "hi"}.
type Record struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// EncodeRecord serializes message as a Record.
func EncodeRecord(message ai.Message) ([]byte, error) {
	return json.Marshal(Record{Role: string(message.Role), Message: message.Content})
}

// DecodeRecord parses a Record back into a message.
func DecodeRecord(data []byte) (ai.Message, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return ai.Message{}, fmt.Errorf("decode record: %w", err)
	}
	return ai.Message{Role: ai.MessageRole(record.Role), Content: record.Message}, nil
}

// TraceAppend records an append event on the span carried by ctx, if any.
func TraceAppend(ctx context.Context, userID string, message ai.Message) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryAppend,
			observability.String(observability.AttrMemoryKey, Key(userID)),
			observability.String(observability.AttrMemoryMessageRole, string(message.Role)),
			observability.Int(observability.AttrMemoryMessageLength, len(message.Content)),
		)
	}
}

// TraceRecent records a read event on the span carried by ctx, if any.
func TraceRecent(ctx context.Context, userID string, limit, returned int) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryRecent,
			observability.String(observability.AttrMemoryKey, Key(userID)),
			observability.Int(observability.AttrMemoryLimit, limit),
			observability.Int(observability.AttrMemoryReturned, returned),
		)
	}
}

// TraceClear records a clear event on the span carried by ctx, if any.
func TraceClear(ctx context.Context, userID string) {
	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventMemoryClear,
			observability.String(observability.AttrMemoryKey, Key(userID)),
		)
	}
}
