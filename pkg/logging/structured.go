package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/snow-ghost/rubric/pkg/tracing"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger carries a zap logger for the grading pipeline and a slog view of
// the same settings for code that only speaks log/slog.
type Logger struct {
	slog *slog.Logger
	zap  *zap.Logger
}

type Config struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // json or console
	Output    string `yaml:"output"` // stdout or stderr
	AddCaller bool   `yaml:"add_caller"`
	AddStack  bool   `yaml:"add_stack"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Output: "stderr"}
}

func NewLogger(config Config) (*Logger, error) {
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Output == "" {
		config.Output = "stderr"
	}
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = config.Format
	zc.OutputPaths = []string{config.Output}
	zc.ErrorOutputPaths = []string{config.Output}
	zc.DisableCaller = !config.AddCaller
	zc.DisableStacktrace = !config.AddStack
	if config.Format == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zl, err := zc.Build()
	if err != nil {
		return nil, err
	}

	out := os.Stderr
	if config.Output == "stdout" {
		out = os.Stdout
	}
	sl := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slogLevel(level)}))

	return &Logger{slog: sl, zap: zl}, nil
}

func NewNop() *Logger {
	return &Logger{
		slog: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		zap:  zap.NewNop(),
	}
}

func slogLevel(level zapcore.Level) slog.Level {
	switch {
	case level <= zapcore.DebugLevel:
		return slog.LevelDebug
	case level == zapcore.InfoLevel:
		return slog.LevelInfo
	case level == zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

type requestIDKey struct{}

// ContextWithRequestID tags ctx so the Log* helpers include request_id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id set by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With("request_id", requestID)
}

// With returns a child logger with alternating key/value pairs attached.
// Pairs whose key is not a string are dropped.
func (l *Logger) With(keyvals ...any) *Logger {
	var attrs []any
	var fields []zap.Field
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			attrs = append(attrs, key, keyvals[i+1])
			fields = append(fields, zap.Any(key, keyvals[i+1]))
		}
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{slog: l.slog.With(attrs...), zap: l.zap.With(fields...)}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.zap.Debug(msg, zapFields(keyvals)...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.zap.Info(msg, zapFields(keyvals)...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.zap.Warn(msg, zapFields(keyvals)...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.zap.Error(msg, zapFields(keyvals)...) }

func zapFields(keyvals []any) []zap.Field {
	var fields []zap.Field
	for i := 0; i+1 < len(keyvals); i += 2 {
		if key, ok := keyvals[i].(string); ok {
			fields = append(fields, zap.Any(key, keyvals[i+1]))
		}
	}
	return fields
}

func millis(d time.Duration) zap.Field {
	return zap.Float64("duration_ms", float64(d.Nanoseconds())/1e6)
}

// scoped adds the request and trace ids carried by ctx, if any.
func (l *Logger) scoped(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := tracing.TraceID(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	if len(fields) == 0 {
		return l.zap
	}
	return l.zap.With(fields...)
}

// LogGrade records the outcome of one grading call.
func (l *Logger) LogGrade(ctx context.Context, strategy string, criteria int, score, rawScore, penalty float64, parseFailures int, duration time.Duration) {
	l.scoped(ctx).Info("grading completed",
		zap.String("strategy", strategy),
		zap.Int("criteria", criteria),
		zap.Float64("score", score),
		zap.Float64("raw_score", rawScore),
		zap.Float64("length_penalty", penalty),
		zap.Int("parse_failures", parseFailures),
		millis(duration),
	)
}

// LogJudgeCall logs failures at error and successes at debug.
func (l *Logger) LogJudgeCall(ctx context.Context, strategy string, index int, duration time.Duration, err error) {
	log := l.scoped(ctx).With(zap.String("strategy", strategy), zap.Int("criterion_index", index), millis(duration))
	if err != nil {
		log.Error("judge call failed", zap.Error(err))
		return
	}
	log.Debug("judge call completed")
}

func (l *Logger) LogParseFailure(ctx context.Context, strategy string, index int, requirement string, err error) {
	l.scoped(ctx).Warn("judge response unparseable, using conservative default",
		zap.String("strategy", strategy),
		zap.Int("criterion_index", index),
		zap.String("requirement", requirement),
		zap.Error(err),
	)
}

func (l *Logger) LogCacheOperation(ctx context.Context, operation string, hit bool) {
	msg := "Cache miss"
	if hit {
		msg = "Cache hit"
	}
	l.scoped(ctx).Debug(msg, zap.String("operation", operation), zap.Bool("hit", hit))
}

func (l *Logger) LogRetry(ctx context.Context, name, reason string, attempt int, delay time.Duration) {
	l.scoped(ctx).Warn("Request retry",
		zap.String("generator", name),
		zap.String("reason", reason),
		zap.Int("attempt", attempt),
		zap.Duration("delay", delay),
	)
}

func (l *Logger) LogCircuitBreaker(name, from, to string) {
	l.zap.Warn("Circuit breaker state changed",
		zap.String("breaker", name),
		zap.String("from", from),
		zap.String("to", to),
	)
}

func (l *Logger) Sync() error { return l.zap.Sync() }

func (l *Logger) Slog() *slog.Logger { return l.slog }

func (l *Logger) Zap() *zap.Logger { return l.zap }
