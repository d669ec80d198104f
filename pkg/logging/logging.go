// Package logging provides the debug log sink used by the execution pipeline, backed by log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nnnkkk7/sqlexec/pkg/command"
)

// Sink receives diagnostic output from the execution pipeline.
type Sink interface {
	// DebugEnabled reports whether debug output is emitted.
	DebugEnabled() bool

	// Debug logs a debug message with an optional error.
	Debug(msg string, err error)

	// DebugCommand logs the statement text and bound parameters of cmd.
	DebugCommand(cmd command.Command)
}

// Logger is a Sink backed by a *slog.Logger.
type Logger struct {
	logger *slog.Logger
}

// New wraps l. A nil logger yields a discarding sink.
func New(l *slog.Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return &Logger{logger: l}
}

// NewText creates a text sink on w. When debug is false every record is dropped.
func NewText(w io.Writer, debug bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelDebug
	if !debug {
		level = slog.LevelError + 1
	}
	return &Logger{logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Discard returns a sink that drops everything.
func Discard() *Logger {
	return NewText(io.Discard, false)
}

// Slog returns the underlying logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// DebugEnabled reports whether the handler accepts debug records.
func (l *Logger) DebugEnabled() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

// Debug logs msg at debug level.
func (l *Logger) Debug(msg string, err error) {
	if err != nil {
		l.logger.Debug(msg, "error", err)
		return
	}
	l.logger.Debug(msg)
}

// DebugCommand logs cmd's text and parameters at debug level.
func (l *Logger) DebugCommand(cmd command.Command) {
	if cmd == nil {
		return
	}
	l.logger.Debug("command", "sql", cmd.Text(), "params", FormatParameters(cmd))
}

// FormatParameters renders the bound parameters of cmd as "[a=1(INT64) b=x(STRING)]".
func FormatParameters(cmd command.Command) string {
	params := cmd.Parameters().All()
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
