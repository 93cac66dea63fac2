package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Handler is a slog.Handler for human-facing output in FormatCompact or
// FormatPretty. JSON and text output use the standard library handlers.
type Handler struct {
	format Format
	level  slog.Leveler
	colors bool
	output io.Writer
	mu     *sync.Mutex

	// attrs are stored flattened with their group prefix already applied.
	attrs  []field
	prefix string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Format is FormatCompact (default) or FormatPretty.
	Format Format
	// Level is the minimum level written. Nil means INFO.
	Level slog.Leveler
	// Output defaults to os.Stdout.
	Output io.Writer
	// Colors forces ANSI colors on. When false, colors are still enabled if
	// Output is a terminal.
	Colors bool
}

type field struct {
	key   string
	value any
}

// NewHandler creates a Handler.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	h := &Handler{
		format: opts.Format,
		level:  opts.Level,
		colors: opts.Colors,
		output: opts.Output,
		mu:     &sync.Mutex{},
	}
	if h.format != FormatPretty {
		h.format = FormatCompact
	}
	if h.level == nil {
		h.level = slog.LevelInfo
	}
	if h.output == nil {
		h.output = os.Stdout
	}
	if !h.colors {
		if f, ok := h.output.(*os.File); ok {
			h.colors = isTerminal(f)
		}
	}
	return h
}

// Enabled reports whether level is at or above the handler's minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes one record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	fields = append(fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})

	buf := &bytes.Buffer{}
	if h.format == FormatPretty {
		h.writePretty(buf, r, fields)
	} else {
		h.writeCompact(buf, r, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.output.Write(buf.Bytes())
	return err
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := *h
	clone.attrs = append([]field{}, h.attrs...)
	for _, a := range attrs {
		clone.attrs = appendAttr(clone.attrs, h.prefix, a)
	}
	return &clone
}

// WithGroup returns a Handler that prefixes later keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// writeCompact renders:
//
//	2006-01-02 15:04:05  INFO message → {"key":"value"}
func (h *Handler) writeCompact(buf *bytes.Buffer, r slog.Record, fields []field) {
	buf.WriteString(r.Time.Format(time.DateTime))
	buf.WriteByte(' ')
	h.writeLevel(buf, r.Level, fmt.Sprintf("%5s", levelString(r.Level)))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	if len(fields) > 0 {
		buf.WriteString(" → ")
		writeJSONObject(buf, fields)
	}
	buf.WriteByte('\n')
}

// writePretty renders the message on one line and each attribute on its own
// indented line, in insertion order.
func (h *Handler) writePretty(buf *bytes.Buffer, r slog.Record, fields []field) {
	buf.WriteString(r.Time.Format(time.DateTime))
	buf.WriteByte(' ')
	level := levelString(r.Level)
	h.writeLevel(buf, r.Level, level)
	buf.WriteString(spaces(7 - len(level)))
	buf.WriteString(r.Message)
	buf.WriteByte('\n')

	for i, f := range fields {
		branch := "├─ "
		if i == len(fields)-1 {
			branch = "└─ "
		}
		buf.WriteString(prettyIndent)
		buf.WriteString(branch)
		buf.WriteString(f.key)
		buf.WriteString(": ")
		fmt.Fprintf(buf, "%v", f.value)
		buf.WriteByte('\n')
	}
}

// prettyIndent lines attribute rows up under the level column.
var prettyIndent = spaces(len(time.DateTime) + 1)

func (h *Handler) writeLevel(buf *bytes.Buffer, level slog.Level, text string) {
	if !h.colors {
		buf.WriteString(text)
		return
	}
	buf.WriteString(colorForLevel(level))
	buf.WriteString(text)
	buf.WriteString(colorReset)
}

// writeJSONObject encodes fields as one JSON object, keeping their order.
func writeJSONObject(buf *bytes.Buffer, fields []field) {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(f.key)
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(f.value)
		if err != nil {
			value, _ = json.Marshal(fmt.Sprint(f.value))
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
}

// appendAttr flattens a into fields, joining group names with dots.
func appendAttr(fields []field, prefix string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, member := range a.Value.Group() {
			fields = appendAttr(fields, groupPrefix, member)
		}
		return fields
	}
	return append(fields, field{key: prefix + a.Key, value: plainValue(a.Value)})
}

// plainValue converts v to something json.Marshal renders readably.
func plainValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
	}
	return v.Any()
}

// levelString maps levels below DEBUG to TRACE.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return string(bytes.Repeat([]byte{' '}, n))
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
