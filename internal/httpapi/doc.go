// Package httpapi exposes the relay over HTTP.
//
// Routes:
//
//	GET  /health  -> 200 {"status": "ok", "provider": "<name>"}
//	POST /chat    -> 200 {"reply", "model", "provider", "tokens_estimate": null}
//
// Malformed /chat bodies and empty fields are rejected with 422 before the
// relay is called. Failures inside a turn (store or provider) map to 502
// with the error text in "detail". Every response carries CORS headers for
// any origin and an X-Request-ID.
package httpapi
