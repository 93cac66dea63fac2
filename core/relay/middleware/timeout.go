package middleware

import (
	"context"
	"time"

	"github.com/leofalp/chatrelay/core/relay"
	"github.com/leofalp/chatrelay/providers/ai"
)

// NewTimeoutMiddleware returns a middleware that enforces a per-call
// deadline on the provider. The context is canceled once the provider returns
// or the deadline expires. A timeout <= 0 returns a pass-through middleware.
//
// If the caller supplies a context that already has a shorter deadline, that
// shorter deadline wins as per normal context semantics.
func NewTimeoutMiddleware(timeout time.Duration) relay.Middleware {
	return func(next relay.SendFunc) relay.SendFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
