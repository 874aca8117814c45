package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// ConsoleLogger renders human-readable, colourised lines for interactive use
type ConsoleLogger struct {
	logger *log.Logger
	level  Level
}

// NewConsoleLogger creates a console logger writing to w
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           toCharmLevel(level),
	})
	return &ConsoleLogger{logger: l, level: level}
}

func toCharmLevel(level Level) log.Level {
	switch level {
	case DebugLevel:
		return log.DebugLevel
	case WarnLevel:
		return log.WarnLevel
	case ErrorLevel:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func keyvals(fields []Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

func (c *ConsoleLogger) Debug(msg string, fields ...Field) { c.logger.Debug(msg, keyvals(fields)...) }
func (c *ConsoleLogger) Info(msg string, fields ...Field)  { c.logger.Info(msg, keyvals(fields)...) }
func (c *ConsoleLogger) Warn(msg string, fields ...Field)  { c.logger.Warn(msg, keyvals(fields)...) }
func (c *ConsoleLogger) Error(msg string, fields ...Field) { c.logger.Error(msg, keyvals(fields)...) }

func (c *ConsoleLogger) With(fields ...Field) Logger {
	return &ConsoleLogger{logger: c.logger.With(keyvals(fields)...), level: c.level}
}

func (c *ConsoleLogger) SetLevel(level Level) {
	c.level = level
	c.logger.SetLevel(toCharmLevel(level))
}

func (c *ConsoleLogger) GetLevel() Level {
	return c.level
}
