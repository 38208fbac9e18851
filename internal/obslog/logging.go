// Package obslog wires zerolog-based structured logging for OpenMemory.
package obslog

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

var baseWriter io.Writer = os.Stdout

// Init initializes zerolog with sane defaults. If logPath is non-empty, logs
// are written there instead of stdout. Falls back to stdout if the file
// cannot be opened.
func Init(logPath string, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	baseWriter = os.Stdout
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			baseWriter = f
		} else {
			_, _ = fmt.Fprintf(os.Stderr, "failed to open log file %q: %v\n", logPath, err)
		}
	}
	log.Logger = log.Output(baseWriter).With().Timestamp().Logger()

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	lvl := zerolog.InfoLevel
	if level != "" {
		if l, err := zerolog.ParseLevel(level); err == nil {
			lvl = l
		}
	}
	zerolog.SetGlobalLevel(lvl)

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// AddOTelWriter fans log output out to w in addition to the base writer
// configured by Init. Called once, after InitOTel has set the global
// OTLP log provider, when otel_enabled is set.
func AddOTelWriter(w io.Writer) {
	log.Logger = log.Output(io.MultiWriter(baseWriter, w)).With().Timestamp().Logger()
}

// ctxKey scopes values this package stores on a context.
type ctxKey int

const tenantKey ctxKey = iota

// WithTenant returns a context carrying the tenant id for log enrichment.
func WithTenant(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, tenantKey, userID)
}

// FromContext returns a zerolog.Logger enriched with trace_id/span_id (when
// present) and the tenant id attached via WithTenant.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	if ctx == nil {
		return &l
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		l = l.With().Str("trace_id", sc.TraceID().String()).Logger()
		if sc.HasSpanID() {
			l = l.With().Str("span_id", sc.SpanID().String()).Logger()
		}
	}
	if uid, ok := ctx.Value(tenantKey).(string); ok && uid != "" {
		l = l.With().Str("user_id", uid).Logger()
	}
	return &l
}
