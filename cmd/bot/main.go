package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"grimaldi/internal/app"
	"grimaldi/internal/bot"
	"grimaldi/internal/config"
	"grimaldi/internal/log"
	"grimaldi/internal/reminder"
	"grimaldi/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Error("бот остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
	log.Info("бот остановлен")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	log.Init(cfg.Tuning.LogLevel)

	if err := cfg.RequireBotToken(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// уровень логов меняется без перезапуска
	err = config.WatchTuning(ctx, cfg.TuningPath, func(t config.Tuning) {
		log.Init(t.LogLevel)
	})
	if err != nil {
		log.Warn("наблюдение за настройками не запущено", "error", err)
	}

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("ошибка подключения к Telegram: %w", err)
	}
	log.Info("бот авторизован", "username", api.Self.UserName)

	sessions := session.NewStore()
	defer sessions.Reset()

	b := bot.New(api, rt.Analysis, rt.Repo.Profile, rt.Repo.Analysis, sessions, cfg)

	rem := reminder.New(rt.Repo.Profile, b, cfg.Tuning.ReminderAfterDays)
	if err := rem.Start(cfg.Tuning.ReminderCron); err != nil {
		log.Error("напоминания не запущены", "error", err)
	} else {
		defer rem.Stop()
	}

	return b.Start(ctx)
}
