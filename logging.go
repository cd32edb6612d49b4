package positions

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
)

// LoggingConfig selects the level and output format of the process logger
type LoggingConfig struct {
	// Level is one of debug, info (default), warn, error
	Level string `json:"level" yaml:"level"`

	// Format is text (default) or json
	Format string `json:"format" yaml:"format"`
}

// NewLogger builds a slog.Logger writing to w (os.Stderr when nil).
func NewLogger(cfg LoggingConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level; unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const redacted = "[REDACTED]"

// diagnostics is the dispatcher's logging side channel. None of its methods
// may panic or return an error.
type diagnostics struct {
	logger *slog.Logger
}

func (d diagnostics) request(ctx context.Context, id, method, url string, header http.Header, body []byte) {
	d.log(ctx, slog.LevelDebug, "api request",
		"request_id", id,
		"method", method,
		"url", url,
		"headers", redactHeaders(header),
		"body", redactBody(body),
	)
}

func (d diagnostics) response(ctx context.Context, id string, status int, statusText string) {
	d.log(ctx, slog.LevelDebug, "api response",
		"request_id", id,
		"status", status,
		"status_text", statusText,
	)
}

func (d diagnostics) failure(ctx context.Context, id string, err error) {
	d.log(ctx, slog.LevelWarn, "api request failed",
		"request_id", id,
		"error", err,
	)
}

func (d diagnostics) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if d.logger == nil {
		return
	}
	defer func() { _ = recover() }()
	d.logger.Log(ctx, level, msg, args...)
}

func newRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return id.String()
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name := range h {
		if name == "Authorization" {
			out[name] = "Bearer " + redacted
			continue
		}
		out[name] = h.Get(name)
	}
	return out
}

// redactBody returns the body for logging with password fields masked.
// Non-JSON bodies are reported by size only.
func redactBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return map[string]int{"bytes": len(body)}
	}

	if m, ok := v.(map[string]any); ok {
		for k := range m {
			if strings.EqualFold(k, "password") {
				m[k] = redacted
			}
		}
	}
	return v
}
