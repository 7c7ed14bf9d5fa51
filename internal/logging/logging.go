// Package logging is the structured logger shared by the CLIs, the ingest
// service and the report server. The parsing core never logs; everything
// written here comes from the layers that read files, serve RPCs or render
// output.
//
// Records about a report carry the same keys everywhere: "report" for the
// catalog name, "report_id" for the catalog entry, "net" for a net name and
// "path" for a file on disk. Use the Report, ReportID, Net and Path helpers
// rather than spelling the keys out.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Attribute keys shared by every package that logs about reports.
const (
	KeyReport    = "report"
	KeyReportID  = "report_id"
	KeyNet       = "net"
	KeyPath      = "path"
	KeyRequestID = "request_id"
)

// Field is one structured attribute of a record.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Err(err error) Field             { return Field{Key: "error", Value: err} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Report names a catalog entry.
func Report(name string) Field { return String(KeyReport, name) }

// ReportID is the stable ID of a catalog entry.
func ReportID(id string) Field { return String(KeyReportID, id) }

// Net names a net inside a report.
func Net(name string) Field { return String(KeyNet, name) }

// Path is a file read or written by a command.
func Path(p string) Field { return String(KeyPath, p) }

// Logger is the logging surface handed to services. Every call takes the
// request context so records can be correlated with traces.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Config selects level, handler format and destination.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json or text
	AddSource bool

	// Output defaults to stdout. CLIs that print results on stdout log to
	// stderr instead.
	Output io.Writer
}

// New returns a slog-backed Logger.
func New(cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return &slogger{l: slog.New(handler)}
}

// NewFromEnv is New(ConfigFromEnv()).
func NewFromEnv() Logger {
	return New(ConfigFromEnv())
}

// ConfigFromEnv reads LOG_LEVEL and LOG_FORMAT. Unset values give a text
// handler at info level.
func ConfigFromEnv() Config {
	return Config{
		Level:     os.Getenv("LOG_LEVEL"),
		Format:    os.Getenv("LOG_FORMAT"),
		AddSource: true,
	}
}

// Noop returns a logger that discards everything.
func Noop() Logger { return noopLogger{} }

type slogger struct {
	l *slog.Logger
}

func (s *slogger) With(fields ...Field) Logger {
	return &slogger{l: s.l.With(toArgs(fields...)...)}
}

func (s *slogger) Debug(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelDebug, msg, toAttrs(fields...)...)
}

func (s *slogger) Info(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelInfo, msg, toAttrs(fields...)...)
}

func (s *slogger) Warn(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelWarn, msg, toAttrs(fields...)...)
}

func (s *slogger) Error(ctx context.Context, msg string, fields ...Field) {
	s.l.LogAttrs(ctx, slog.LevelError, msg, toAttrs(fields...)...)
}

type noopLogger struct{}

func (noopLogger) With(...Field) Logger                    { return noopLogger{} }
func (noopLogger) Debug(context.Context, string, ...Field) {}
func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}

func toAttrs(fields ...Field) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}

func toArgs(fields ...Field) []any {
	args := make([]any, 0, len(fields))
	for _, f := range toAttrs(fields...) {
		args = append(args, f)
	}
	return args
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
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

type ctxKey int

const (
	requestIDKey ctxKey = iota
	loggerKey
)

// EnsureRequestID returns ctx unchanged when it already carries a request
// ID, otherwise a child context with a fresh UUID.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return ContextWithRequestID(ctx, id), id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" when no ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestLogger makes sure ctx has a request ID and returns base
// annotated with it.
func WithRequestLogger(ctx context.Context, base Logger) (context.Context, Logger) {
	if base == nil {
		base = Noop()
	}
	ctx, id := EnsureRequestID(ctx)
	return ctx, base.With(String(KeyRequestID, id))
}

// ContextWithLogger stores l on ctx; a nil l is stored as Noop.
func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	if l == nil {
		l = Noop()
	}
	return context.WithValue(ctx, loggerKey, l)
}

// LoggerFromContext returns the logger stored by ContextWithLogger, or nil.
func LoggerFromContext(ctx context.Context) Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(loggerKey).(Logger)
	return l
}
