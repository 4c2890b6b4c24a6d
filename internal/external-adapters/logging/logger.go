// Package logging adapts hashicorp/go-hclog to the domain Logger interface.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/ochairo/forge/internal/domain/interfaces"
)

// Environment variable names
const (
	LogLevelEnvVar  = "FORGE_LOG_LEVEL"
	LogFormatEnvVar = "FORGE_LOG_FORMAT"
)

// Log formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures a Logger
type Options struct {
	Name   string
	Level  string // trace, debug, info, warn, error; falls back to FORGE_LOG_LEVEL then info
	Format string // text or json; falls back to FORGE_LOG_FORMAT then text
	Output io.Writer
}

// Logger implements interfaces.Logger on top of hclog
type Logger struct {
	hc hclog.Logger
}

// New creates a Logger writing to stderr unless opts.Output is set
func New(opts Options) *Logger {
	levelStr := opts.Level
	if levelStr == "" {
		levelStr = os.Getenv(LogLevelEnvVar)
	}
	level := hclog.LevelFromString(strings.ToLower(levelStr))
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	format := opts.Format
	if format == "" {
		format = os.Getenv(LogFormatEnvVar)
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return &Logger{hc: hclog.New(&hclog.LoggerOptions{
		Name:       opts.Name,
		Level:      level,
		Output:     output,
		JSONFormat: strings.EqualFold(format, FormatJSON),
	})}
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, fields ...interfaces.Field) {
	l.hc.Debug(msg, args(fields)...)
}

// Info logs informational messages
func (l *Logger) Info(msg string, fields ...interfaces.Field) {
	l.hc.Info(msg, args(fields)...)
}

// Warn logs warning messages
func (l *Logger) Warn(msg string, fields ...interfaces.Field) {
	l.hc.Warn(msg, args(fields)...)
}

// Error logs error messages
func (l *Logger) Error(msg string, fields ...interfaces.Field) {
	l.hc.Error(msg, args(fields)...)
}

// Named returns a sub-logger whose name is appended to this one
func (l *Logger) Named(name string) interfaces.Logger {
	return &Logger{hc: l.hc.Named(name)}
}

func args(fields []interfaces.Field) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
