package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"grimaldi/internal/composition"
)

// Profile — клиент и его антропометрический профиль
type Profile struct {
	UserID        int64
	TelegramID    int64
	Name          string
	HeightM       float64
	WeightKg      float64
	Age           int
	Sex           string
	SpreadsheetID sql.NullString
	CreatedAt     time.Time
}

// Composition возвращает профиль в виде входа для анализа
func (p *Profile) Composition() composition.Profile {
	return composition.Profile{
		HeightM:  p.HeightM,
		WeightKg: p.WeightKg,
		Age:      p.Age,
		Sex:      composition.Sex(p.Sex),
	}
}

// Complete — заполнены ли все поля, нужные для анализа
func (p *Profile) Complete() bool {
	return composition.ValidateProfile(p.Composition()) == nil && p.Composition().Sex.Valid()
}

// ProfileRepository работает с таблицей profiles
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository создаёт репозиторий профилей
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, COALESCE(telegram_id, 0), name, height_m, weight_kg, age, sex, spreadsheet_id, created_at`

func scanProfile(row rowScanner) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(
		&p.UserID, &p.TelegramID, &p.Name,
		&p.HeightM, &p.WeightKg, &p.Age, &p.Sex,
		&p.SpreadsheetID, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Register создаёт профиль для Telegram-пользователя или возвращает существующий
func (r *ProfileRepository) Register(ctx context.Context, telegramID int64, name string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO public.profiles (telegram_id, name)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING `+profileColumns, telegramID, name)
	return scanProfile(row)
}

// Create создаёт профиль без Telegram (клиент из панели)
func (r *ProfileRepository) Create(ctx context.Context, p *Profile) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO public.profiles (name, height_m, weight_kg, age, sex)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id, created_at`,
		p.Name, p.HeightM, p.WeightKg, p.Age, p.Sex,
	).Scan(&p.UserID, &p.CreatedAt)
}

// UpdateBody сохраняет рост, вес, возраст и пол
func (r *ProfileRepository) UpdateBody(ctx context.Context, userID int64, p composition.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE public.profiles
		SET height_m = $2, weight_kg = $3, age = $4, sex = $5
		WHERE user_id = $1`,
		userID, p.HeightM, p.WeightKg, p.Age, string(p.Sex))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByTelegramID возвращает профиль по Telegram ID
func (r *ProfileRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM public.profiles
		WHERE telegram_id = $1`, telegramID)
	return scanProfile(row)
}

// GetByUserID возвращает профиль по ID
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM public.profiles
		WHERE user_id = $1`, userID)
	return scanProfile(row)
}

// SetSpreadsheetID привязывает Google-таблицу клиента
func (r *ProfileRepository) SetSpreadsheetID(ctx context.Context, userID int64, spreadsheetID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE public.profiles SET spreadsheet_id = $2 WHERE user_id = $1`,
		userID, spreadsheetID)
	return err
}

// StaleSince возвращает клиентов с Telegram, у которых нет анализа после since
func (r *ProfileRepository) StaleSince(ctx context.Context, since time.Time) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.user_id, COALESCE(p.telegram_id, 0), p.name, p.height_m, p.weight_kg,
		       p.age, p.sex, p.spreadsheet_id, p.created_at
		FROM public.profiles p
		LEFT JOIN public.analyses a ON a.user_id = p.user_id
		WHERE p.telegram_id IS NOT NULL
		GROUP BY p.user_id
		HAVING COALESCE(MAX(a.created_at), p.created_at) < $1
		ORDER BY p.user_id`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
