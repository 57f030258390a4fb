// Package app собирает зависимости, общие для бота и HTTP API.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"grimaldi/internal/analysis"
	"grimaldi/internal/composition"
	"grimaldi/internal/config"
	"grimaldi/internal/events"
	"grimaldi/internal/gsheets"
	"grimaldi/internal/log"
	"grimaldi/internal/pose"
	"grimaldi/internal/repository"
)

// Runtime — подключения и сервисы одного процесса
type Runtime struct {
	DB        *sql.DB
	Repo      *repository.Repository
	Analysis  *analysis.Service
	publisher events.Publisher
}

// Open подключается к базе, применяет схему и собирает сервис анализа.
// RabbitMQ и Google Sheets подключаются, только если настроены.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("база недоступна: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("база подключена", "host", cfg.DBHost, "db", cfg.DBName)

	repo := repository.New(db)

	var publisher events.Publisher = events.Noop{}
	if cfg.AMQPURL != "" {
		publisher = events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		log.Info("публикация событий включена", "queue", cfg.AMQPQueue)
	}

	opts := []analysis.Option{analysis.WithPublisher(publisher)}
	if cfg.GoogleDriveFolderID != "" {
		client, err := gsheets.NewClient(ctx, cfg.GoogleCredentialsPath, cfg.GoogleDriveFolderID)
		if err != nil {
			log.Warn("Google Sheets не инициализирован", "error", err)
		} else {
			opts = append(opts, analysis.WithSheets(gsheets.NewSyncer(client, repo.Profile)))
			log.Info("Google Sheets клиент инициализирован")
		}
	}

	extractor := composition.NewExtractor(composition.ParseMode(cfg.Tuning.ExtractorMode))
	source := pose.NewHTTPSource(cfg.PoseURL, cfg.PoseTimeout)

	return &Runtime{
		DB:        db,
		Repo:      repo,
		Analysis:  analysis.NewService(source, extractor, repo.Analysis, opts...),
		publisher: publisher,
	}, nil
}

// Close дожидается фоновой синхронизации и закрывает подключения
func (r *Runtime) Close() {
	r.Analysis.Wait()
	if err := r.publisher.Close(); err != nil {
		log.Warn("ошибка закрытия публикатора", "error", err)
	}
	if err := r.DB.Close(); err != nil {
		log.Warn("ошибка закрытия базы", "error", err)
	}
}
