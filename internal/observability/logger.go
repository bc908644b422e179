package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	slog *slog.Logger
	file *lumberjack.Logger
}

// NewLogger пишет в stderr и, если задан logPath, в ротируемый файл.
// stdout оставляем под JSON-результат.
func NewLogger(logPath, logLevel string) *Logger {
	var w io.Writer = os.Stderr
	var file *lumberjack.Logger
	if logPath != "" {
		file = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // дней
		}
		w = io.MultiWriter(os.Stderr, file)
	}

	return NewLoggerWithWriter(w, logLevel, file)
}

// NewLoggerWithWriter нужен тестам и нестандартным приёмникам.
func NewLoggerWithWriter(w io.Writer, logLevel string, file *lumberjack.Logger) *Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(logLevel)})
	return &Logger{slog: slog.New(handler), file: file}
}

// Nop глушит весь вывод.
func Nop() *Logger {
	return NewLoggerWithWriter(io.Discard, "error", nil)
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.slog.Debug(msg, fields...)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.slog.Info(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	l.slog.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...interface{}) {
	l.slog.Error(msg, fields...)
}

// Close закрывает файл лога, если он был открыт.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
