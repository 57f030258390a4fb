package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const analysisColumns = `
	id, user_id, created_at,
	height_m, weight_kg, age, sex,
	arms, forearms, waist, hip, thighs, calves,
	bmi, fat_percent, fat_mass_kg, lean_mass_kg, bmr, body_water_l, body_water_percent,
	idx_waist, idx_hip, idx_lean_mass, idx_fat_mass, idx_waist_hip, idx_waist_height, idx_conicity,
	score, vision_used`

// AnalysisRepository работает с таблицей analyses.
// Строки не изменяются: правка — это новая строка и удаление старой.
type AnalysisRepository struct {
	db *sql.DB
}

// NewAnalysisRepository создаёт репозиторий анализов
func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	rec := &Record{}
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.CreatedAt,
		&rec.HeightM, &rec.WeightKg, &rec.Age, &rec.Sex,
		&rec.Arms, &rec.Forearms, &rec.Waist, &rec.Hip, &rec.Thighs, &rec.Calves,
		&rec.BMI, &rec.FatPercent, &rec.FatMassKg, &rec.LeanMassKg, &rec.BMR, &rec.BodyWaterL, &rec.BodyWaterPercent,
		&rec.IdxWaist, &rec.IdxHip, &rec.IdxLeanMass, &rec.IdxFatMass, &rec.IdxWaistHip, &rec.IdxWaistHeight, &rec.IdxConicity,
		&rec.Score, &rec.VisionUsed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert сохраняет анализ. ID и время создания заполняются, если пустые.
func (r *AnalysisRepository) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO public.analyses (`+analysisColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)`,
		rec.ID, rec.UserID, rec.CreatedAt,
		rec.HeightM, rec.WeightKg, rec.Age, rec.Sex,
		rec.Arms, rec.Forearms, rec.Waist, rec.Hip, rec.Thighs, rec.Calves,
		rec.BMI, rec.FatPercent, rec.FatMassKg, rec.LeanMassKg, rec.BMR, rec.BodyWaterL, rec.BodyWaterPercent,
		rec.IdxWaist, rec.IdxHip, rec.IdxLeanMass, rec.IdxFatMass, rec.IdxWaistHip, rec.IdxWaistHeight, rec.IdxConicity,
		rec.Score, rec.VisionUsed,
	)
	return err
}

// LatestByUser возвращает последний анализ пользователя
func (r *AnalysisRepository) LatestByUser(ctx context.Context, userID int64) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+`
		FROM public.analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID)
	return scanRecord(row)
}

// GetByID возвращает анализ по ID
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT `+analysisColumns+`
		FROM public.analyses
		WHERE id = $1`, id)
	return scanRecord(row)
}

// Delete удаляет анализ по ID
func (r *AnalysisRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM public.analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLatestPerUser возвращает последний анализ каждого пользователя
// (для панели сотрудников), лучшие результаты сверху
func (r *AnalysisRepository) ListLatestPerUser(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT * FROM (
			SELECT DISTINCT ON (user_id) `+analysisColumns+`
			FROM public.analyses
			ORDER BY user_id, created_at DESC
		) latest
		ORDER BY score DESC, user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// History возвращает анализы пользователя, новые первыми
func (r *AnalysisRepository) History(ctx context.Context, userID int64, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+analysisColumns+`
		FROM public.analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
