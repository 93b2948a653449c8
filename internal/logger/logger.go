package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Constants for logging levels
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Environments: text logs for humans in dev, json for log collectors in prod
const (
	EnvDevelopment = "dev"
	EnvProduction  = "prod"
)

// Logger interface defines the logging contract
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// New creates logger suitable for the environment
func New(environment string, level string) (Logger, error) {
	switch strings.ToLower(environment) {
	case EnvDevelopment:
		return NewTextLogger(level)
	case EnvProduction:
		return NewJSONLogger(level)
	default:
		return nil, fmt.Errorf("unknown environment %q", environment)
	}
}

// NewTextLogger creates a new text logger with the specified level
func NewTextLogger(level string) (Logger, error) {
	opts, err := handlerOptions(level)
	if err != nil {
		return nil, err
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return &slogLogger{logger: slog.New(handler)}, nil
}

// NewJSONLogger creates a new JSON logger with the specified level
func NewJSONLogger(level string) (Logger, error) {
	opts, err := handlerOptions(level)
	if err != nil {
		return nil, err
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return &slogLogger{logger: slog.New(handler)}, nil
}

// NewNoOpLogger creates a logger that discards all log messages
func NewNoOpLogger() Logger {
	logger := slog.New(slog.DiscardHandler)
	return &slogLogger{logger: logger}
}

func handlerOptions(level string) (*slog.HandlerOptions, error) {
	l, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	return &slog.HandlerOptions{
		Level:       l,
		AddSource:   true,
		ReplaceAttr: replaceAttr,
	}, nil
}
