// Package utils provides shared low-level helpers used by the provider
// implementations: [DoPostRaw] for JSON POST round-trips that keep the raw
// response body, [RunBlocking] with [BlockingPool] for moving blocking SDK
// calls off the request goroutine, and [TruncateString] for log-safe strings.
package utils
