package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const LevelCritical = slog.Level(12)

const redacted = "[REDACTED]"

// sensitiveKeys never reach the log output with their real value. Member
// records carry national IDs and phone numbers, and auth paths carry secrets.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"national_id":   {},
	"phone_number":  {},
	"jwt_secret":    {},
}

// Logger is the structured logger shared by handlers, middleware and the
// composition root. BusinessError is for expected domain refusals (WARN),
// InternalError for failures that need attention (ERROR).
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	BusinessError(message string, err error, args ...any)
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

type Options struct {
	Level     slog.Level
	Format    string
	Service   string
	AddSource bool
	// KeepSensitive disables redaction. Only meant for local debugging.
	KeepSensitive bool
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SOURCE and ENV.
func NewFromEnv() Logger {
	env := normalizeValue(os.Getenv("ENV"))
	return NewWithOptions(os.Stdout, Options{
		Level:     parseLevel(os.Getenv("LOG_LEVEL"), env),
		Format:    parseFormat(os.Getenv("LOG_FORMAT")),
		Service:   "membership-app",
		AddSource: normalizeValue(os.Getenv("LOG_SOURCE")) == "true",
	})
}

func New(output io.Writer, level slog.Level, format string) Logger {
	return NewWithOptions(output, Options{Level: level, Format: format})
}

func NewWithOptions(output io.Writer, opts Options) Logger {
	options := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if !opts.KeepSensitive {
				attr = redact(attr)
			}
			return renameLevel(attr)
		},
	}

	var handler slog.Handler
	if normalizeValue(opts.Format) == "text" {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}

	base := slog.New(handler)
	if opts.Service != "" {
		base = base.With("service", opts.Service)
	}
	return &slogLogger{base: base}
}

// Nop discards everything.
func Nop() Logger {
	return New(io.Discard, LevelCritical+1, "text")
}

func (l *slogLogger) Debug(message string, args ...any) { l.base.Debug(message, args...) }
func (l *slogLogger) Info(message string, args ...any)  { l.base.Info(message, args...) }
func (l *slogLogger) Warn(message string, args ...any)  { l.base.Warn(message, args...) }
func (l *slogLogger) Error(message string, args ...any) { l.base.Error(message, args...) }

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	if err != nil {
		l.base.Warn(message, withErr(err, args)...)
	}
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	if err != nil {
		l.base.Error(message, withErr(err, args)...)
	}
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

func withErr(err error, args []any) []any {
	return append([]any{"err", err}, args...)
}

func parseLevel(value string, env string) slog.Level {
	switch normalizeValue(value) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	}
	if env == "development" || env == "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseFormat(value string) string {
	if normalizeValue(value) == "text" {
		return "text"
	}
	return "json"
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func redact(attr slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(attr.Key)]; !ok {
		return attr
	}
	if attr.Value.Kind() == slog.KindString && attr.Value.String() == "" {
		return attr
	}
	attr.Value = slog.StringValue(redacted)
	return attr
}

func renameLevel(attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}
	if level, ok := attr.Value.Any().(slog.Level); ok && level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
