// Package logging provides a thin structured-logging wrapper around zerolog,
// shared by the CLI and every core component.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the handful of levels the CLI exposes via the
// framework.log_level config key.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the on-wire log encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a new Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger wraps a zerolog.Logger with a key-value call style matching the
// rest of this codebase's callers.
type Logger struct {
	l zerolog.Logger
}

// New builds a Logger from Config, defaulting Output to stdout and Level to info.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	out := cfg.Output
	if cfg.Format == FormatText {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
			NoColor:    false,
		}
	}

	zl := zerolog.New(out).With().Timestamp().Logger()

	switch cfg.Level {
	case LevelDebug:
		zl = zl.Level(zerolog.DebugLevel)
	case LevelWarn:
		zl = zl.Level(zerolog.WarnLevel)
	case LevelError:
		zl = zl.Level(zerolog.ErrorLevel)
	default:
		zl = zl.Level(zerolog.InfoLevel)
	}

	return &Logger{l: zl}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{l: zerolog.Nop()}
}

func (lg *Logger) with(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

func (lg *Logger) Debug(msg string, kv ...any) { lg.with(lg.l.Debug(), kv).Msg(msg) }
func (lg *Logger) Info(msg string, kv ...any)  { lg.with(lg.l.Info(), kv).Msg(msg) }
func (lg *Logger) Warn(msg string, kv ...any)  { lg.with(lg.l.Warn(), kv).Msg(msg) }
func (lg *Logger) Error(msg string, kv ...any) { lg.with(lg.l.Error(), kv).Msg(msg) }

// With returns a child Logger with the given key-values attached to every
// subsequent call.
func (lg *Logger) With(kv ...any) *Logger {
	ctx := lg.l.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, kv[i+1])
	}
	return &Logger{l: ctx.Logger()}
}
