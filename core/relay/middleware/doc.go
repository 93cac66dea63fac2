// Package middleware provides built-in provider middleware for the relay.
// Each middleware is constructed via a New* function that returns a
// [relay.Middleware] ready to be passed to [relay.WithMiddleware].
//
// # Available Middleware
//
//   - [NewTimeoutMiddleware]: Adds a per-call deadline via context.WithTimeout,
//     ensuring that a stalled provider call does not block the turn indefinitely.
//
//   - [NewLoggingMiddleware]: Emits structured slog log entries before and after
//     every provider call, with three verbosity levels (Minimal, Standard, Verbose).
//
// # Usage
//
//	r := relay.New(store, provider,
//	    relay.WithMiddleware(
//	        middleware.NewTimeoutMiddleware(30*time.Second),
//	        middleware.NewLoggingMiddleware(slog.Default(), "openai", middleware.LogLevelStandard),
//	    ),
//	)
//
// Middlewares execute outermost-first: the first entry in WithMiddleware is the
// outermost wrapper, meaning it runs first on the way in and last on the way out.
// In the example above, a request travels:
//
//	Timeout (first, outermost) → Logging → Provider
package middleware
