package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Frames between runtime.Callers and the code that called Info, Warn, etc.
const callerSkip = 3

const redacted = "[redacted]"

// Keys whose values never reach the log output
var secretKeys = map[string]struct{}{
	"password":        {},
	"password_hash":   {},
	"hashed_password": {},
	"authorization":   {},
}

type slogLogger struct {
	logger *slog.Logger
}

// Handle the record directly, so source points to the caller of the wrapper
func (l *slogLogger) log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(callerSkip, pcs[:])

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.logger.Handler().Handle(ctx, record)
}

func (l *slogLogger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{logger: l.logger.WithGroup(name)}
}

// Accepts slog level names in any case, with optional offset like "debug+2"
func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// Trim source to file name and hide credentials
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.SourceKey {
		if source, ok := a.Value.Any().(*slog.Source); ok {
			source.File = filepath.Base(source.File)
		}
		return a
	}

	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}
