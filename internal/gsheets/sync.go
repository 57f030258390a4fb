package gsheets

import (
	"context"
	"fmt"

	"grimaldi/internal/repository"
)

// ProfileStore — часть репозитория профилей, нужная для синхронизации
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*repository.Profile, error)
	SetSpreadsheetID(ctx context.Context, userID int64, spreadsheetID string) error
}

// Syncer дописывает сохранённые анализы в таблицу клиента.
// Таблица создаётся при первом анализе.
type Syncer struct {
	client   *Client
	profiles ProfileStore
}

// NewSyncer создаёт синхронизатор
func NewSyncer(client *Client, profiles ProfileStore) *Syncer {
	return &Syncer{client: client, profiles: profiles}
}

// SyncAnalysis добавляет анализ в таблицу клиента
func (s *Syncer) SyncAnalysis(ctx context.Context, rec *repository.Record) error {
	profile, err := s.profiles.GetByUserID(ctx, rec.UserID)
	if err != nil {
		return fmt.Errorf("профиль %d: %w", rec.UserID, err)
	}

	spreadsheetID := profile.SpreadsheetID.String
	if !profile.SpreadsheetID.Valid || spreadsheetID == "" {
		spreadsheetID, err = s.client.CreateClientSpreadsheet(ctx, rec.UserID, profile.Name, profile.Composition())
		if err != nil {
			return err
		}
		if err := s.profiles.SetSpreadsheetID(ctx, rec.UserID, spreadsheetID); err != nil {
			return fmt.Errorf("ошибка сохранения ID таблицы: %w", err)
		}
	}

	return s.client.AppendAnalysis(ctx, spreadsheetID, rec.Result(), rec.CreatedAt, rec.VisionUsed)
}
