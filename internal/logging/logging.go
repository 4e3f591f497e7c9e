// Package logging provides the structured logger shared by mdview components.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum log level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix names the logger in every line.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Prefix: "mdview",
	}
}

// Logger provides leveled, structured logging.
// Derived loggers share the level of the logger they were derived from.
type Logger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New creates a logger with the given configuration.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000"),
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}

	level := zap.NewAtomicLevelAt(cfg.Level.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(cfg.Output), level)

	z := zap.New(core)
	if cfg.Prefix != "" {
		z = z.Named(cfg.Prefix)
	}

	return &Logger{sugar: z.Sugar(), level: level}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{
		sugar: zap.NewNop().Sugar(),
		level: zap.NewAtomicLevelAt(zapcore.FatalLevel),
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{sugar: l.sugar.With(key, value), level: l.level}
}

// WithFields returns a new logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{sugar: l.sugar.With(kv...), level: l.level}
}

// WithComponent returns a new logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel sets the minimum log level for this logger and every logger
// derived from the same root.
func (l *Logger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.level.Enabled(level.zapLevel())
}

// Debug logs a debug message. Args are applied with fmt.Sprintf.
func (l *Logger) Debug(msg string, args ...any) {
	if l.Enabled(LevelDebug) {
		l.sugar.Debug(format(msg, args))
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	if l.Enabled(LevelInfo) {
		l.sugar.Info(format(msg, args))
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	if l.Enabled(LevelWarn) {
		l.sugar.Warn(format(msg, args))
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	if l.Enabled(LevelError) {
		l.sugar.Error(format(msg, args))
	}
}

// Sync flushes any buffered output.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func format(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// OrNop returns l, or a discarding logger when l is nil.
func OrNop(l *Logger) *Logger {
	if l == nil {
		return Nop()
	}
	return l
}
