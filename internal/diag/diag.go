// Package diag is the structured diagnostic channel the lexer and its
// collaborators report through. It never decides how a message is
// rendered; callers attach their own slog.Handler (JSON for a daemon,
// text for a CLI) by wrapping a logger with New and storing the Sink in
// the lexer's Config.Diag.
package diag

import (
	"context"
	"log/slog"
)

// Sink is the minimal diagnostic surface the lexer depends on. A nil
// *slog.Logger is valid and discards everything, so components never
// need a nil check before reporting.
type Sink struct {
	logger *slog.Logger
}

// New wraps logger in a Sink. A nil logger yields a Sink that discards
// every message.
func New(logger *slog.Logger) Sink {
	return Sink{logger: logger}
}

func (s Sink) log(level slog.Level, msg string, attrs []slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Warn reports a non-fatal condition: version-gated keywords, obsolete
// keywords, rejected duplicate block-generator registration, and the
// like. Warnings never halt lexing.
func (s Sink) Warn(msg string, attrs ...slog.Attr) {
	s.log(slog.LevelWarn, msg, attrs)
}

// Debug reports internal bookkeeping not useful outside development.
func (s Sink) Debug(msg string, attrs ...slog.Attr) {
	s.log(slog.LevelDebug, msg, attrs)
}

// Info reports routine, expected events (an include resolved, a block
// expanded) useful for tracing a preprocess run.
func (s Sink) Info(msg string, attrs ...slog.Attr) {
	s.log(slog.LevelInfo, msg, attrs)
}
