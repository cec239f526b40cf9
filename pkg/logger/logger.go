// Package logger provides structured logging for the compiler passes
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	mu            sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "info"
}

// ParseLevel maps "debug", "info", "warn" or "error" to a LogLevel
func ParseLevel(s string) (LogLevel, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Config holds logger configuration
type Config struct {
	Level  LogLevel
	Format string // "text" or "json"
	Output io.Writer
}

// DefaultConfig returns the configuration used by the command line driver
func DefaultConfig() Config {
	return Config{
		Level:  LevelWarn,
		Format: "text",
		Output: os.Stderr,
	}
}

// Init installs the package logger
func Init(cfg Config) {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: toSlogLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the current logger. It discards everything until Init is called.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// Debug logs a debug message
func Debug(msg string, args ...any) { L().Debug(msg, args...) }

// Info logs an info message
func Info(msg string, args ...any) { L().Info(msg, args...) }

// Warn logs a warning message
func Warn(msg string, args ...any) { L().Warn(msg, args...) }

// Error logs an error message
func Error(msg string, args ...any) { L().Error(msg, args...) }

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger { return L().With(args...) }

// Compiler-specific logging helpers

// LogPhase logs the completion of a compilation phase and its duration
func LogPhase(phase string, start time.Time) {
	Debug("phase complete", "phase", phase, "duration", time.Since(start))
}

// LogAllocation logs the outcome of register allocation for one function
func LogAllocation(fn string, strategy string, rounds, spills, temps int) {
	Debug("register allocation complete",
		"fn", fn,
		"strategy", strategy,
		"rounds", rounds,
		"spills", spills,
		"temps", temps)
}
