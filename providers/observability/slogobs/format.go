package slogobs

import (
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatText is slog's key=value text format (default for development).
	FormatText Format = "text"

	// FormatJSON is standard JSON format (for production/log aggregation).
	FormatJSON Format = "json"

	// FormatCompact is one line per record with attributes as a JSON object.
	// Example: 2025-11-03 10:40:35  INFO Relay ready → {"provider":"dummy"}
	FormatCompact Format = "compact"

	// FormatPretty puts each attribute on its own indented line.
	// Example:
	//
	//	2025-11-03 10:40:35 INFO   Relay ready
	//	                    └─ provider: dummy
	FormatPretty Format = "pretty"
)

// ParseFormat parses a format string and returns the corresponding Format.
// Unknown values yield FormatText.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	case "compact":
		return FormatCompact
	case "pretty":
		return FormatPretty
	default:
		return FormatText
	}
}

// GetFormatFromEnv reads LOG_FORMAT, defaulting to FormatText.
func GetFormatFromEnv() Format {
	return ParseFormat(os.Getenv("LOG_FORMAT"))
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}
