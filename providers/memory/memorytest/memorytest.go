// Package memorytest holds the behavioral checks every [memory.Store]
// backend must pass. Backend test files call [Run] with a constructor that
// returns a fresh, empty store.
package memorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leofalp/chatrelay/providers/ai"
	"github.com/leofalp/chatrelay/providers/memory"
)

// Run exercises newStore against the Store contract.
func Run(t *testing.T, newStore func(t *testing.T) memory.Store) {
	t.Helper()

	t.Run("UnknownUserIsEmpty", func(t *testing.T) {
		store := newStore(t)
		got, err := store.Recent(context.Background(), "nobody", 10)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("PreservesAppendOrder", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustAppend(t, store, "alice", ai.RoleUser, "hi")
		mustAppend(t, store, "alice", ai.RoleAssistant, "hello")

		got, err := store.Recent(ctx, "alice", 10)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		want := []ai.Message{
			{Role: ai.RoleUser, Content: "hi"},
			{Role: ai.RoleAssistant, Content: "hello"},
		}
		assertMessages(t, got, want)
	})

	t.Run("ReturnsBoundedSuffix", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		for i := 1; i <= 7; i++ {
			mustAppend(t, store, "carol", ai.RoleUser, fmt.Sprintf("m%d", i))
		}

		got, err := store.Recent(ctx, "carol", 3)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		assertMessages(t, got, []ai.Message{
			{Role: ai.RoleUser, Content: "m5"},
			{Role: ai.RoleUser, Content: "m6"},
			{Role: ai.RoleUser, Content: "m7"},
		})

		all, err := store.Recent(ctx, "carol", 100)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		if len(all) != 7 {
			t.Fatalf("expected all 7 messages when limit exceeds length, got %d", len(all))
		}
	})

	t.Run("NonPositiveLimitIsEmpty", func(t *testing.T) {
		store := newStore(t)
		mustAppend(t, store, "dave", ai.RoleUser, "hi")

		for _, limit := range []int{0, -1} {
			got, err := store.Recent(context.Background(), "dave", limit)
			if err != nil {
				t.Fatalf("Recent(%d) returned error: %v", limit, err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("Recent(%d): expected empty non-nil slice, got %#v", limit, got)
			}
		}
	})

	t.Run("ClearIsIdempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustAppend(t, store, "erin", ai.RoleUser, "hi")

		if err := store.Clear(ctx, "erin"); err != nil {
			t.Fatalf("Clear returned error: %v", err)
		}
		if err := store.Clear(ctx, "erin"); err != nil {
			t.Fatalf("second Clear returned error: %v", err)
		}
		got, err := store.Recent(ctx, "erin", 10)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty conversation after clear, got %d messages", len(got))
		}
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		mustAppend(t, store, "frank", ai.RoleUser, "mine")
		mustAppend(t, store, "grace", ai.RoleUser, "hers")

		if err := store.Clear(ctx, "grace"); err != nil {
			t.Fatalf("Clear returned error: %v", err)
		}
		got, err := store.Recent(ctx, "frank", 10)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		assertMessages(t, got, []ai.Message{{Role: ai.RoleUser, Content: "mine"}})
	})

	t.Run("RejectsEmptyUserID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if err := store.Append(ctx, "", ai.Message{Role: ai.RoleUser, Content: "x"}); !errors.Is(err, memory.ErrEmptyUserID) {
			t.Errorf("Append: expected ErrEmptyUserID, got %v", err)
		}
		if _, err := store.Recent(ctx, "", 5); !errors.Is(err, memory.ErrEmptyUserID) {
			t.Errorf("Recent: expected ErrEmptyUserID, got %v", err)
		}
		if err := store.Clear(ctx, ""); !errors.Is(err, memory.ErrEmptyUserID) {
			t.Errorf("Clear: expected ErrEmptyUserID, got %v", err)
		}
	})

	t.Run("ConcurrentAppends", func(t *testing.T) {
		store := newStore(t)
		const writers = 8

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := store.Append(context.Background(), "heidi", ai.Message{Role: ai.RoleUser, Content: fmt.Sprintf("w%d", i)}); err != nil {
					t.Errorf("Append returned error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		got, err := store.Recent(context.Background(), "heidi", writers*2)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		if len(got) != writers {
			t.Fatalf("expected %d messages, got %d", writers, len(got))
		}
	})
}

func mustAppend(t *testing.T, store memory.Store, userID string, role ai.MessageRole, content string) {
	t.Helper()
	if err := store.Append(context.Background(), userID, ai.Message{Role: role, Content: content}); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
}

func assertMessages(t *testing.T, got, want []ai.Message) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d: %#v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
