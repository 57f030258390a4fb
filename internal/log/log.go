// Package log — структурированное логирование поверх slog.
package log

import (
	"log/slog"
	"os"
	"sync"
)

var (
	logger *slog.Logger
	level  = new(slog.LevelVar)
	once   sync.Once
)

// Init настраивает глобальный логгер.
// Уровни: "debug", "info", "warn", "error". Повторный вызов меняет только уровень.
func Init(lvl string) {
	level.Set(parseLevel(lvl))

	once.Do(setup)
}

func setup() {
	opts := &slog.HandlerOptions{Level: level}

	// В продакшене JSON, локально текст
	if os.Getenv("GO_ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(logger)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L возвращает глобальный логгер
func L() *slog.Logger {
	once.Do(setup)
	return logger
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }

func Info(msg string, args ...any) { L().Info(msg, args...) }

func Warn(msg string, args ...any) { L().Warn(msg, args...) }

func Error(msg string, args ...any) { L().Error(msg, args...) }

// With возвращает логгер с атрибутами
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
