package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var _ badger.Logger = BadgerLogger{}

// BadgerLogger redirects the internal messages of BadgerDB to a slog.Logger.
// Badger is chatty at info level, so its info lines are logged as debug.
type BadgerLogger struct {
	log *slog.Logger
}

func NewBadgerLogger(log *slog.Logger) BadgerLogger {
	return BadgerLogger{log: log.With("component", "badger")}
}

func (l BadgerLogger) Errorf(format string, args ...any) {
	l.log.Error(message(format, args))
}

func (l BadgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(message(format, args))
}

func (l BadgerLogger) Infof(format string, args ...any) {
	l.log.Debug(message(format, args))
}

func (l BadgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(message(format, args))
}

// message drops the trailing newline badger puts on most lines.
func message(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
