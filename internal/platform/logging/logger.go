// Package logging wraps zap with a process-wide default logger and an
// optional mirror that forwards records to the telemetry exporter.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

// SlogLevel maps a zap level onto the equivalent slog level.
func SlogLevel(level Level) slog.Level {
	switch {
	case level <= LevelDebug:
		return slog.LevelDebug
	case level == LevelWarn:
		return slog.LevelWarn
	case level >= LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Mirror receives every record written through a Logger. Used to ship logs
// to the OTLP exporter without a second logging path in application code.
type Mirror interface {
	Emit(level Level, at time.Time, msg string, kv []any)
}

var activeMirror atomic.Pointer[Mirror]

func SetMirror(m Mirror) {
	if m == nil {
		activeMirror.Store(nil)
		return
	}
	activeMirror.Store(&m)
}

type Logger struct {
	sugar *zap.SugaredLogger
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewNop())
}

func Default() *Logger {
	return defaultLogger.Load()
}

func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// NewJSON builds a production JSON logger writing to stdout.
func NewJSON(level Level) *Logger {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stdout), level)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{sugar: z.Sugar()}
}

func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) log(level Level, msg string, kv []any) {
	switch level {
	case LevelDebug:
		l.sugar.Debugw(msg, kv...)
	case LevelWarn:
		l.sugar.Warnw(msg, kv...)
	case LevelError:
		l.sugar.Errorw(msg, kv...)
	default:
		l.sugar.Infow(msg, kv...)
	}
	if m := activeMirror.Load(); m != nil {
		(*m).Emit(level, time.Now(), msg, kv)
	}
}
