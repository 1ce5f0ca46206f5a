// Package enginelog wraps go.uber.org/zap with the four-level knob the
// engine façade's worker construction, submission and kernel dispatch log
// through — the same
// error/warn/info/debug ladder the teacher's pkg/log exposed, but backed by
// a structured logger instead of fmt.Fprintf.
package enginelog

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level selects the minimum severity that reaches the sink.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	case Info:
		return zapcore.InfoLevel
	case Debug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseLevel maps a config string (e.g. engineconfig's log_level) to a
// Level, defaulting to Info for anything unrecognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "error":
		return Error
	case "warn", "warning":
		return Warn
	case "debug":
		return Debug
	default:
		return Info
	}
}

// New builds a production zap.Logger with its minimum level set to level.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	return cfg.Build()
}

// Nop returns a logger that discards everything, for callers that never
// configured one (the engine must not require logging to function).
func Nop() *zap.Logger { return zap.NewNop() }
