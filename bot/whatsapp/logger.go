package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// slogLogger bridges whatsmeow's logger to slog.
type slogLogger struct {
	log *slog.Logger
	min slog.Level
}

func newLogger(log *slog.Logger, module string, level string) waLog.Logger {
	return &slogLogger{log: log.With(slog.String("wa", module)), min: parseLevel(level)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func (l *slogLogger) logf(level slog.Level, msg string, args ...interface{}) {
	if level < l.min {
		return
	}
	l.log.Log(context.Background(), level, fmt.Sprintf(msg, args...))
}

func (l *slogLogger) Debugf(msg string, args ...interface{}) { l.logf(slog.LevelDebug, msg, args...) }
func (l *slogLogger) Infof(msg string, args ...interface{})  { l.logf(slog.LevelInfo, msg, args...) }
func (l *slogLogger) Warnf(msg string, args ...interface{})  { l.logf(slog.LevelWarn, msg, args...) }
func (l *slogLogger) Errorf(msg string, args ...interface{}) { l.logf(slog.LevelError, msg, args...) }

func (l *slogLogger) Sub(module string) waLog.Logger {
	return &slogLogger{log: l.log.With(slog.String("sub", module)), min: l.min}
}
