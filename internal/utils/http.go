package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/chatrelay/providers/observability"
)

// maxErrorBodyLength bounds how much of an upstream error body ends up in error messages.
const maxErrorBodyLength = 500

// HeaderOption adds a single header to an outgoing request.
type HeaderOption struct {
	Key   string
	Value string
}

// StatusError is returned by DoPostRaw when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string // response body, HTML pages converted to Markdown
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// DoPostRaw performs a synchronous HTTP POST with a JSON body and returns the
// raw response body. Callers that need to sniff the response shape use this
// instead of decoding into a fixed struct.
//
// Error Handling Strategy:
//   - Context errors (timeout, cancellation) are wrapped and propagated
//   - Non-2xx statuses return a *StatusError carrying the (truncated) body
//   - Response body close errors are logged but don't override primary errors
func DoPostRaw(ctx context.Context, client *http.Client, url string, apiKey string, body any, headers ...HeaderOption) (*http.Response, []byte, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("error marshaling body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, http.MethodPost),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(jsonBody)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for _, header := range headers {
		req.Header.Set(header.Key, header.Value)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)

	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return nil, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer CloseWithLog(res.Body)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, respBody, &StatusError{
			StatusCode: res.StatusCode,
			Body:       TruncateString(readableBody(res.Header.Get("Content-Type"), respBody), maxErrorBodyLength),
		}
	}

	return res, respBody, nil
}

// readableBody turns an error body into text fit for an error message. Proxies
// and load balancers in front of inference endpoints answer with HTML pages;
// those are converted to Markdown so the message is not a wall of tags.
func readableBody(contentType string, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "text/html" {
		return strings.TrimSpace(string(body))
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return strings.TrimSpace(string(body))
	}
	return strings.TrimSpace(markdown)
}

// CloseWithLog closes c and logs, rather than returns, any error.
func CloseWithLog(c io.Closer) {
	if err := c.Close(); err != nil {
		slog.Warn("failed to close", "error", err.Error())
	}
}
