package redismemory

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
)

// Options holds the connection settings used by Dial.
type Options struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// Addr returns host:port.
func (o Options) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Dial connects to Redis and checks the connection with PING. The caller
// owns the returned client and must Close it.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr(),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &memory.StoreError{Op: "ping", Key: opts.Addr(), Err: err}
	}
	return client, nil
}

// RedisMemory implements [memory.Store] with Redis persistence. Thread
// safety is handled by the go-redis connection pool.
type RedisMemory struct {
	client redis.Cmdable
}

// Compile-time check: RedisMemory must implement memory.Store.
var _ memory.Store = (*RedisMemory)(nil)

// New returns a store backed by client.
func New(client redis.Cmdable) *RedisMemory {
	return &RedisMemory{client: client}
}

// Append pushes the encoded message to the tail of the user's list.
func (m *RedisMemory) Append(ctx context.Context, userID string, message ai.Message) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceAppend(ctx, userID, message)

	key := memory.Key(userID)
	record, err := memory.EncodeRecord(message)
	if err != nil {
		return &memory.StoreError{Op: "append", Key: key, Err: err}
	}
	if err := m.client.RPush(ctx, key, record).Err(); err != nil {
		return &memory.StoreError{Op: "append", Key: key, Err: err}
	}
	return nil
}

// Recent reads the last limit entries with LRANGE key -limit -1.
func (m *RedisMemory) Recent(ctx context.Context, userID string, limit int) ([]ai.Message, error) {
	if userID == "" {
		return nil, memory.ErrEmptyUserID
	}
	if limit <= 0 {
		return []ai.Message{}, nil
	}

	key := memory.Key(userID)
	entries, err := m.client.LRange(ctx, key, -int64(limit), -1).Result()
	if err != nil {
		return nil, &memory.StoreError{Op: "recent", Key: key, Err: err}
	}

	out := make([]ai.Message, 0, len(entries))
	for i, entry := range entries {
		message, err := memory.DecodeRecord([]byte(entry))
		if err != nil {
			return nil, &memory.StoreError{Op: "recent", Key: key, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		out = append(out, message)
	}

	memory.TraceRecent(ctx, userID, limit, len(out))
	return out, nil
}

// Clear deletes the user's list.
func (m *RedisMemory) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return memory.ErrEmptyUserID
	}
	memory.TraceClear(ctx, userID)

	key := memory.Key(userID)
	if err := m.client.Del(ctx, key).Err(); err != nil {
		return &memory.StoreError{Op: "clear", Key: key, Err: err}
	}
	return nil
}
