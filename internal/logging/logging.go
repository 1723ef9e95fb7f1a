package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// Logger is the leveled, printf-style logger handed to every component.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	// With returns a child logger that tags every line with key=value.
	With(key string, value interface{}) Logger
	Level() LogLevel
}

// Config controls where log output goes and how verbose it is.
type Config struct {
	Level string
	// File enables a rotated log file in addition to stderr when non-empty.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Output overrides stderr, mostly for tests.
	Output io.Writer
}

// ParseLevel converts a level name into a LogLevel. Unknown names map to info.
// DEBUG=1/true/yes/on in the environment forces debug.
func ParseLevel(name string) LogLevel {
	if debug := os.Getenv("DEBUG"); debug != "" {
		switch strings.ToLower(debug) {
		case "1", "true", "yes", "on":
			return LevelDebug
		}
	}

	switch strings.ToLower(name) {
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

// New builds a zerolog-backed Logger from cfg.
func New(cfg Config) Logger {
	level := ParseLevel(cfg.Level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	writers := []io.Writer{
		zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = out
			w.TimeFormat = time.RFC3339
		}),
	}

	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	zl := zerolog.New(io.MultiWriter(writers...)).
		Level(level.zerolog()).
		With().
		Timestamp().
		Logger()

	return &zeroLogger{zl: zl, level: level}
}

// NewWithZerolog wraps an existing zerolog logger.
func NewWithZerolog(zl zerolog.Logger) Logger {
	level := LevelInfo
	switch zl.GetLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		level = LevelDebug
	case zerolog.WarnLevel:
		level = LevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		level = LevelError
	}
	return &zeroLogger{zl: zl, level: level}
}

type zeroLogger struct {
	zl    zerolog.Logger
	level LogLevel
}

func (l *zeroLogger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

func (l *zeroLogger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

func (l *zeroLogger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *zeroLogger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *zeroLogger) With(key string, value interface{}) Logger {
	return &zeroLogger{
		zl:    l.zl.With().Interface(key, value).Logger(),
		level: l.level,
	}
}

func (l *zeroLogger) Level() LogLevel {
	return l.level
}

// Zerolog exposes the underlying zerolog logger for adapters (watermill, vips).
// It returns a disabled logger for Logger implementations not built by New.
func Zerolog(l Logger) zerolog.Logger {
	if zl, ok := l.(*zeroLogger); ok {
		return zl.zl
	}
	return zerolog.Nop()
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zeroLogger{zl: zerolog.Nop(), level: LevelError + 1}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// IsDebugEnabled returns true if l logs at debug level.
func IsDebugEnabled(l Logger) bool {
	return l.Level() <= LevelDebug
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
