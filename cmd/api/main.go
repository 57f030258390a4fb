package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grimaldi/internal/app"
	"grimaldi/internal/config"
	"grimaldi/internal/log"
	"grimaldi/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Error("API остановлен с ошибкой", "error", err)
		os.Exit(1)
	}
	log.Info("API остановлен")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	log.Init(cfg.Tuning.LogLevel)

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

	if cfg.APIToken == "" {
		log.Warn("API_TOKEN не задан, API доступен без авторизации")
	}
	srv := web.NewServer(rt.Analysis, rt.Repo.Profile, rt.Repo.Analysis, cfg.APIToken)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Tuning.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
