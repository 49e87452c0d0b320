package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SessionFileName is the per-drama log file.
const SessionFileName = "download.log"

// Session is an open per-drama log.
type Session struct {
	Logger *slog.Logger
	Path   string
	file   *os.File
}

// OpenSession opens (or creates) dir/download.log for appending.
func OpenSession(dir string, level slog.Level) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	path := filepath.Join(dir, SessionFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	return &Session{
		Logger: slog.New(newLineHandler(f, level, true)),
		Path:   path,
		file:   f,
	}, nil
}

// Close flushes and closes the log file. Later calls are no-ops.
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// NewConsole returns a logger writing untimestamped lines to w.
func NewConsole(w io.Writer, level string) *slog.Logger {
	return slog.New(newLineHandler(w, ParseLevel(level), false))
}

// New returns a logger writing timestamped lines to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(newLineHandler(w, level, true))
}

// Fanout returns a logger that writes every record to all given loggers.
// Nil loggers are skipped.
func Fanout(loggers ...*slog.Logger) *slog.Logger {
	var handlers []slog.Handler
	for _, l := range loggers {
		if l != nil {
			handlers = append(handlers, l.Handler())
		}
	}
	switch len(handlers) {
	case 0:
		return Discard()
	case 1:
		return slog.New(handlers[0])
	}
	return slog.New(&fanoutHandler{handlers: handlers})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a config string to a level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
