package core

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured logging interface every engine component takes
// as a dependency. Its shape follows the teacher's pkg/core.Logger, but the
// default implementation is backed by zerolog instead of a hand-rolled
// writer, matching how intelligencedev-manifold and cuemby/warren log.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type zeroLogger struct {
	l zerolog.Logger
}

// NewLogger returns a Logger that writes structured JSON lines to w.
func NewLogger(w io.Writer) Logger {
	return &zeroLogger{l: zerolog.New(w).With().Timestamp().Logger()}
}

// NewStdLogger returns a Logger writing to stdout.
func NewStdLogger() Logger {
	return NewLogger(os.Stdout)
}

func fields(e *zerolog.Event, keyvals []any) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keyvals[i+1])
	}
	return e
}

func (z *zeroLogger) Debug(msg string, keyvals ...any) { fields(z.l.Debug(), keyvals).Msg(msg) }
func (z *zeroLogger) Info(msg string, keyvals ...any)  { fields(z.l.Info(), keyvals).Msg(msg) }
func (z *zeroLogger) Warn(msg string, keyvals ...any)  { fields(z.l.Warn(), keyvals).Msg(msg) }
func (z *zeroLogger) Error(msg string, keyvals ...any) { fields(z.l.Error(), keyvals).Msg(msg) }

func (z *zeroLogger) With(keyvals ...any) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keyvals[i+1])
	}
	return &zeroLogger{l: ctx.Logger()}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)     {}
func (nopLogger) Info(string, ...any)      {}
func (nopLogger) Warn(string, ...any)      {}
func (nopLogger) Error(string, ...any)     {}
func (n nopLogger) With(...any) Logger     { return n }

// NopLogger returns a Logger that discards everything, for tests.
func NopLogger() Logger { return nopLogger{} }
