package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound возвращается, если запись не найдена
var ErrNotFound = errors.New("запись не найдена")

// Repository содержит все репозитории
type Repository struct {
	Analysis *AnalysisRepository
	Profile  *ProfileRepository
}

// New создаёт новый экземпляр Repository
func New(db *sql.DB) *Repository {
	return &Repository{
		Analysis: NewAnalysisRepository(db),
		Profile:  NewProfileRepository(db),
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS public.profiles (
	user_id        BIGSERIAL PRIMARY KEY,
	telegram_id    BIGINT UNIQUE,
	name           TEXT NOT NULL DEFAULT '',
	height_m       DOUBLE PRECISION NOT NULL DEFAULT 0,
	weight_kg      DOUBLE PRECISION NOT NULL DEFAULT 0,
	age            INTEGER NOT NULL DEFAULT 0,
	sex            CHAR(1) NOT NULL DEFAULT 'M',
	spreadsheet_id TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS public.analyses (
	id                 UUID PRIMARY KEY,
	user_id            BIGINT NOT NULL REFERENCES public.profiles(user_id),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	height_m           DOUBLE PRECISION NOT NULL,
	weight_kg          DOUBLE PRECISION NOT NULL,
	age                INTEGER NOT NULL,
	sex                CHAR(1) NOT NULL,
	arms               DOUBLE PRECISION NOT NULL,
	forearms           DOUBLE PRECISION NOT NULL,
	waist              DOUBLE PRECISION NOT NULL,
	hip                DOUBLE PRECISION NOT NULL,
	thighs             DOUBLE PRECISION NOT NULL,
	calves             DOUBLE PRECISION NOT NULL,
	bmi                DOUBLE PRECISION NOT NULL,
	fat_percent        DOUBLE PRECISION NOT NULL,
	fat_mass_kg        DOUBLE PRECISION NOT NULL,
	lean_mass_kg       DOUBLE PRECISION NOT NULL,
	bmr                INTEGER NOT NULL,
	body_water_l       DOUBLE PRECISION NOT NULL,
	body_water_percent DOUBLE PRECISION NOT NULL,
	idx_waist          DOUBLE PRECISION NOT NULL,
	idx_hip            DOUBLE PRECISION NOT NULL,
	idx_lean_mass      DOUBLE PRECISION NOT NULL,
	idx_fat_mass       DOUBLE PRECISION NOT NULL,
	idx_waist_hip      DOUBLE PRECISION NOT NULL,
	idx_waist_height   DOUBLE PRECISION NOT NULL,
	idx_conicity       DOUBLE PRECISION NOT NULL,
	score              INTEGER NOT NULL,
	vision_used        BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS analyses_user_created_idx
	ON public.analyses (user_id, created_at DESC);
`

// Migrate создаёт таблицы, если их нет
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}
	return nil
}
