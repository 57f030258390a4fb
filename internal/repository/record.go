package repository

import (
	"time"

	"grimaldi/internal/composition"
)

// Record — плоская строка таблицы analyses.
// Индексы хранятся только числами, категории восстанавливаются классификатором.
type Record struct {
	ID        string
	UserID    int64
	CreatedAt time.Time

	HeightM  float64
	WeightKg float64
	Age      int
	Sex      string

	Arms     float64
	Forearms float64
	Waist    float64
	Hip      float64
	Thighs   float64
	Calves   float64

	BMI              float64
	FatPercent       float64
	FatMassKg        float64
	LeanMassKg       float64
	BMR              int
	BodyWaterL       float64
	BodyWaterPercent float64

	IdxWaist       float64
	IdxHip         float64
	IdxLeanMass    float64
	IdxFatMass     float64
	IdxWaistHip    float64
	IdxWaistHeight float64
	IdxConicity    float64

	Score      int
	VisionUsed bool
}

// RecordFromResult раскладывает результат анализа в строку таблицы
func RecordFromResult(userID int64, r *composition.Result) *Record {
	ix := r.Indices
	return &Record{
		UserID: userID,

		HeightM:  r.Profile.HeightM,
		WeightKg: r.Profile.WeightKg,
		Age:      r.Profile.Age,
		Sex:      string(r.Profile.Sex),

		Arms:     r.Measurements.Arms,
		Forearms: r.Measurements.Forearms,
		Waist:    r.Measurements.Waist,
		Hip:      r.Measurements.Hip,
		Thighs:   r.Measurements.Thighs,
		Calves:   r.Measurements.Calves,

		BMI:              r.Composition.BMI,
		FatPercent:       r.Composition.FatPercent,
		FatMassKg:        r.Composition.FatMassKg,
		LeanMassKg:       r.Composition.LeanMassKg,
		BMR:              r.Composition.BMR,
		BodyWaterL:       r.Composition.BodyWaterL,
		BodyWaterPercent: r.Composition.BodyWaterPercent,

		IdxWaist:       ix.Waist.Value,
		IdxHip:         ix.Hip.Value,
		IdxLeanMass:    ix.LeanMassIndex.Value,
		IdxFatMass:     ix.FatMassIndex.Value,
		IdxWaistHip:    ix.WaistHip.Value,
		IdxWaistHeight: ix.WaistHeight.Value,
		IdxConicity:    ix.Conicity.Value,

		Score: r.Score,
	}
}

// Profile возвращает профиль, сохранённый вместе с анализом
func (rec *Record) Profile() composition.Profile {
	return composition.Profile{
		HeightM:  rec.HeightM,
		WeightKg: rec.WeightKg,
		Age:      rec.Age,
		Sex:      composition.Sex(rec.Sex),
	}
}

// Measurements возвращает шесть сохранённых обхватов
func (rec *Record) Measurements() composition.Measurements {
	return composition.Measurements{
		Arms:     rec.Arms,
		Forearms: rec.Forearms,
		Waist:    rec.Waist,
		Hip:      rec.Hip,
		Thighs:   rec.Thighs,
		Calves:   rec.Calves,
	}
}

// Result восстанавливает результат: числа из строки, категории и описания
// заново через классификатор.
func (rec *Record) Result() *composition.Result {
	profile := rec.Profile()
	indices := composition.ClassifyAll(composition.IndexValues{
		composition.IndexWaist:       rec.IdxWaist,
		composition.IndexHip:         rec.IdxHip,
		composition.IndexLeanMass:    rec.IdxLeanMass,
		composition.IndexFatMass:     rec.IdxFatMass,
		composition.IndexWaistHip:    rec.IdxWaistHip,
		composition.IndexWaistHeight: rec.IdxWaistHeight,
		composition.IndexConicity:    rec.IdxConicity,
	}, profile.Sex)

	return &composition.Result{
		Profile:      profile,
		Measurements: rec.Measurements(),
		Composition: composition.Composition{
			BMI:              rec.BMI,
			FatPercent:       rec.FatPercent,
			FatMassKg:        rec.FatMassKg,
			LeanMassKg:       rec.LeanMassKg,
			BMR:              rec.BMR,
			BodyWaterL:       rec.BodyWaterL,
			BodyWaterPercent: rec.BodyWaterPercent,
		},
		Indices:   indices,
		Score:     rec.Score,
		Breakdown: composition.CompositeScore(indices),
	}
}
