// Package logger provides the structured JSON logger shared by all services.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type Logger interface {
	Info(message string, fields map[string]interface{})
	Error(message string, fields map[string]interface{})
	Warn(message string, fields map[string]interface{})
	Debug(message string, fields map[string]interface{})
	Fatal(message string, fields map[string]interface{})
}

type jsonLogger struct {
	logger zerolog.Logger
}

// New returns a logger writing JSON lines to stdout at info level.
func New(serviceName string) Logger {
	return NewWithWriter(serviceName, "info", os.Stdout)
}

// NewWithLevel is New with an explicit minimum level ("debug", "info", ...).
func NewWithLevel(serviceName, level string) Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

func NewWithWriter(serviceName, level string, w io.Writer) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	return &jsonLogger{logger: zl}
}

func (l *jsonLogger) Info(message string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(message)
}

func (l *jsonLogger) Error(message string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(message)
}

func (l *jsonLogger) Warn(message string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(message)
}

func (l *jsonLogger) Debug(message string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(message)
}

func (l *jsonLogger) Fatal(message string, fields map[string]interface{}) {
	// zerolog's Fatal exits after writing
	l.logger.Fatal().Fields(fields).Msg(message)
}

func NewNop() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (l *nopLogger) Info(message string, fields map[string]interface{})  {}
func (l *nopLogger) Error(message string, fields map[string]interface{}) {}
func (l *nopLogger) Warn(message string, fields map[string]interface{})  {}
func (l *nopLogger) Debug(message string, fields map[string]interface{}) {}
func (l *nopLogger) Fatal(message string, fields map[string]interface{}) {}
