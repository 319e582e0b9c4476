package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// LevelEnv is consulted when no level is configured explicitly.
const LevelEnv = "OWASPSCAN_LOG_LEVEL"

// Options configures NewHCLogger.
type Options struct {
	Name   string
	Level  string
	JSON   bool
	Output io.Writer
}

// HCLogger adapts an hclog.Logger to Logger.
type HCLogger struct {
	l hclog.Logger
}

// NewHCLogger builds an hclog-backed Logger. The level comes from
// opts.Level, then from $OWASPSCAN_LOG_LEVEL, defaulting to INFO.
func NewHCLogger(opts Options) *HCLogger {
	level := opts.Level
	if level == "" {
		level = os.Getenv(LevelEnv)
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return &HCLogger{l: hclog.New(&hclog.LoggerOptions{
		Name:        opts.Name,
		Level:       ParseLevel(level),
		Output:      out,
		JSONFormat:  opts.JSON,
		DisableTime: !opts.JSON,
	})}
}

// FromHCLog wraps an existing hclog.Logger.
func FromHCLog(l hclog.Logger) *HCLogger { return &HCLogger{l: l} }

// ParseLevel maps TRACE/DEBUG/INFO/WARN/ERROR (any casing) to an hclog
// level. Unknown strings map to Info.
func ParseLevel(levelStr string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN", "WARNING":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// ValidLevel reports whether s is empty or one of the recognised names.
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}

func args(fields []Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}

func (h *HCLogger) Debug(msg string, fields ...Field) { h.l.Debug(msg, args(fields)...) }
func (h *HCLogger) Info(msg string, fields ...Field) { h.l.Info(msg, args(fields)...) }
func (h *HCLogger) Warn(msg string, fields ...Field) { h.l.Warn(msg, args(fields)...) }
func (h *HCLogger) Error(msg string, fields ...Field) { h.l.Error(msg, args(fields)...) }

// With maps a "component" field onto hclog's named sub-loggers so the
// component shows up in the logger name.
func (h *HCLogger) With(fields ...Field) Logger {
	l := h.l
	rest := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Key == "component" {
			if name, ok := f.Value.(string); ok {
				l = l.Named(name)
				continue
			}
		}
		rest = append(rest, f)
	}
	if len(rest) > 0 {
		l = l.With(args(rest)...)
	}
	return &HCLogger{l: l}
}

// HCLog exposes the underlying hclog logger.
func (h *HCLogger) HCLog() hclog.Logger { return h.l }
