package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"

	formatEnv = "FENCEOPS_LOG_FORMAT"
)

// Options configures the structured logger. An empty Format falls back to
// FENCEOPS_LOG_FORMAT so the bootstrap logger, built before config loads, matches.
type Options struct {
	ServiceName string
	Environment string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger writes zerolog entries enriched with fields carried on the context.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv(formatEnv)
	}
	if strings.EqualFold(format, FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	fields := zerolog.New(output).With().Timestamp().Str("service", opts.ServiceName)
	if opts.Environment != "" {
		fields = fields.Str("env", opts.Environment)
	}
	logger := fields.Logger().Level(opts.Level)

	return &Logger{base: &logger, warnStack: opts.WarnStack}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

// ParseLevel maps a config string onto a zerolog level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, entry zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.attach(ctx, l.entry(ctx).With().Interface(key, value).Logger())
}

// WithFields adds fields in key order so repeated entries serialize identically.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	builder := l.entry(ctx).With()
	for _, k := range keys {
		builder = builder.Interface(k, fields[k])
	}
	return l.attach(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithActorID(ctx context.Context, actorID string) context.Context {
	return l.WithField(ctx, "actor_id", actorID)
}

func (l *Logger) WithQuoteID(ctx context.Context, quoteID string) context.Context {
	return l.WithField(ctx, "quote_id", quoteID)
}

// WithPricingScope tags entries with the pricing context they were resolved under.
func (l *Logger) WithPricingScope(ctx context.Context, scope string) context.Context {
	return l.WithField(ctx, "pricing_scope", scope)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.entry(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.entry(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always carries a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.entry(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
