// Package observability provides structured logging for comiclist components.
//
// Logger wraps zerolog with a persistent component field so every line a
// component emits can be traced back to it.
package observability

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with persistent component context.
//
// A nil *Logger is valid and discards everything, so components can treat
// their logger as optional.
type Logger struct {
	inner zerolog.Logger
}

// NewLogger creates a structured logger for a named component.
// Output defaults to os.Stderr if w is nil.
func NewLogger(component string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	inner := zerolog.New(w).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{inner: inner}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{inner: zerolog.Nop()}
}

// With returns a new Logger with an additional persistent field.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{inner: l.inner.With().Interface(key, value).Logger()}
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	emit(l.inner.Debug(), msg, args)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	emit(l.inner.Info(), msg, args)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	emit(l.inner.Warn(), msg, args)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		return
	}
	emit(l.inner.Error(), msg, args)
}

// emit attaches alternating key/value args to the event. Values whose key is
// not a string are recorded under a synthetic key rather than dropped.
func emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}
		switch v := args[i+1].(type) {
		case error:
			ev = ev.AnErr(key, v)
		case string:
			ev = ev.Str(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}
