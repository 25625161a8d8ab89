package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"court-order-server/internal/domain"

	"github.com/phuslu/log"
)

// AppLogger implements the domain.Logger interface on top of phuslu/log
type AppLogger struct {
	logger log.Logger
}

// NewLogger creates a new logger instance writing JSON lines to stdout, or
// human-readable lines when format is "console".
func NewLogger(levelStr string, format string) domain.Logger {
	var writer log.Writer = &log.IOWriter{Writer: os.Stdout}
	if strings.EqualFold(format, "console") {
		writer = &log.ConsoleWriter{
			ColorOutput:    true,
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return newLogger(levelStr, writer)
}

// NewLoggerWithWriter creates a JSON logger writing to w.
func NewLoggerWithWriter(levelStr string, w io.Writer) domain.Logger {
	return newLogger(levelStr, &log.IOWriter{Writer: w})
}

func newLogger(levelStr string, writer log.Writer) *AppLogger {
	return &AppLogger{
		logger: log.Logger{
			Level:      parseLogLevel(levelStr),
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			Writer:     writer,
		},
	}
}

// Info logs an info message
func (l *AppLogger) Info(msg string, fields ...interface{}) {
	withFields(l.logger.Info(), fields).Msg(msg)
}

// Error logs an error message
func (l *AppLogger) Error(msg string, err error, fields ...interface{}) {
	withFields(l.logger.Error().Err(err), fields).Msg(msg)
}

// Debug logs a debug message
func (l *AppLogger) Debug(msg string, fields ...interface{}) {
	withFields(l.logger.Debug(), fields).Msg(msg)
}

// Warn logs a warning message
func (l *AppLogger) Warn(msg string, fields ...interface{}) {
	withFields(l.logger.Warn(), fields).Msg(msg)
}

// withFields attaches alternating key/value pairs. A trailing key without a
// value is dropped. Entries for disabled levels are nil and skipped.
func withFields(e *log.Entry, fields []interface{}) *log.Entry {
	if e == nil {
		return e
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		switch v := fields[i+1].(type) {
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case int64:
			e = e.Int64(key, v)
		case bool:
			e = e.Bool(key, v)
		case error:
			e = e.Str(key, v.Error())
		default:
			e = e.Any(key, v)
		}
	}
	return e
}

// parseLogLevel converts string log level to a phuslu level
func parseLogLevel(levelStr string) log.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
