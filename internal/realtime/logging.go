package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pion/logging"
)

const levelTrace = slog.LevelDebug - 4

// slogFactory routes pion's scoped loggers (ice, dtls, sctp, ...) into slog.
type slogFactory struct {
	log *slog.Logger
}

func newSlogFactory(log *slog.Logger) logging.LoggerFactory {
	return &slogFactory{log: log.With("component", "pion")}
}

func (f *slogFactory) NewLogger(scope string) logging.LeveledLogger {
	return &slogLeveled{log: f.log.With("scope", scope)}
}

type slogLeveled struct {
	log *slog.Logger
}

func (l *slogLeveled) emit(level slog.Level, msg string) {
	l.log.Log(context.Background(), level, msg)
}

func (l *slogLeveled) Trace(msg string) { l.emit(levelTrace, msg) }
func (l *slogLeveled) Tracef(format string, args ...any) {
	l.emit(levelTrace, fmt.Sprintf(format, args...))
}
func (l *slogLeveled) Debug(msg string) { l.emit(slog.LevelDebug, msg) }
func (l *slogLeveled) Debugf(format string, args ...any) {
	l.emit(slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (l *slogLeveled) Info(msg string) { l.emit(slog.LevelInfo, msg) }
func (l *slogLeveled) Infof(format string, args ...any) {
	l.emit(slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (l *slogLeveled) Warn(msg string) { l.emit(slog.LevelWarn, msg) }
func (l *slogLeveled) Warnf(format string, args ...any) {
	l.emit(slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l *slogLeveled) Error(msg string) { l.emit(slog.LevelError, msg) }
func (l *slogLeveled) Errorf(format string, args ...any) {
	l.emit(slog.LevelError, fmt.Sprintf(format, args...))
}
