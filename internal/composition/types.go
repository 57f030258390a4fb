// Package composition estimates body composition from circumference
// measurements and scores the resulting risk indices.
package composition

import (
	"gonum.org/v1/gonum/floats/scalar"
)

// Sex of the assessed person.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// Valid reports whether s is one of the known values.
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// Profile is the immutable input of one analysis run.
type Profile struct {
	HeightM  float64 `json:"height_m"`
	WeightKg float64 `json:"weight_kg"`
	Age      int     `json:"age"`
	Sex      Sex     `json:"sex"`
}

// HeightCm returns the height in centimeters.
func (p Profile) HeightCm() float64 {
	return p.HeightM * 100
}

// BMI returns weight / height², unrounded.
func (p Profile) BMI() float64 {
	return p.WeightKg / (p.HeightM * p.HeightM)
}

// Kind names one of the six measured circumferences.
type Kind string

const (
	KindArms     Kind = "arms"
	KindForearms Kind = "forearms"
	KindWaist    Kind = "waist"
	KindHip      Kind = "hip"
	KindThighs   Kind = "thighs"
	KindCalves   Kind = "calves"
)

// Kinds lists every measurement kind in report order.
var Kinds = []Kind{KindArms, KindForearms, KindWaist, KindHip, KindThighs, KindCalves}

// Trunk reports whether the kind is a trunk circumference.
func (k Kind) Trunk() bool {
	return k == KindWaist || k == KindHip
}

// Label returns the Portuguese name used in messages and reports.
func (k Kind) Label() string {
	switch k {
	case KindArms:
		return "braços"
	case KindForearms:
		return "antebraços"
	case KindWaist:
		return "cintura"
	case KindHip:
		return "quadril"
	case KindThighs:
		return "coxas"
	case KindCalves:
		return "panturrilhas"
	default:
		return string(k)
	}
}

// Measurements holds the six circumferences in centimeters.
type Measurements struct {
	Arms     float64 `json:"arms"`
	Forearms float64 `json:"forearms"`
	Waist    float64 `json:"waist"`
	Hip      float64 `json:"hip"`
	Thighs   float64 `json:"thighs"`
	Calves   float64 `json:"calves"`
}

// Get returns the value for kind.
func (m Measurements) Get(kind Kind) float64 {
	switch kind {
	case KindArms:
		return m.Arms
	case KindForearms:
		return m.Forearms
	case KindWaist:
		return m.Waist
	case KindHip:
		return m.Hip
	case KindThighs:
		return m.Thighs
	case KindCalves:
		return m.Calves
	}
	return 0
}

// With returns a copy of m with kind set to v.
func (m Measurements) With(kind Kind, v float64) Measurements {
	switch kind {
	case KindArms:
		m.Arms = v
	case KindForearms:
		m.Forearms = v
	case KindWaist:
		m.Waist = v
	case KindHip:
		m.Hip = v
	case KindThighs:
		m.Thighs = v
	case KindCalves:
		m.Calves = v
	}
	return m
}

// Range is an inclusive plausible interval.
type Range struct {
	Min, Max float64
}

func (r Range) clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// MeasurementLimits are the physiologically plausible ranges applied
// before a result is stored.
var MeasurementLimits = map[Kind]Range{
	KindArms:     {15, 60},
	KindForearms: {15, 45},
	KindWaist:    {50, 160},
	KindHip:      {60, 170},
	KindThighs:   {30, 90},
	KindCalves:   {20, 60},
}

// Clamp returns a copy with every value inside MeasurementLimits,
// rounded to one decimal.
func (m Measurements) Clamp() Measurements {
	out := m
	for _, k := range Kinds {
		out = out.With(k, scalar.Round(MeasurementLimits[k].clamp(m.Get(k)), 1))
	}
	return out
}

// Composition is derived once per analysis and never patched.
type Composition struct {
	BMI              float64 `json:"bmi"`
	FatPercent       float64 `json:"fat_percent"`
	FatMassKg        float64 `json:"fat_mass_kg"`
	LeanMassKg       float64 `json:"lean_mass_kg"`
	BMR              int     `json:"bmr"`
	BodyWaterL       float64 `json:"body_water_l"`
	BodyWaterPercent float64 `json:"body_water_percent"`
}

// Band is an ordinal risk classification.
type Band string

const (
	BandLowRisk    Band = "BAIXO_RISCO"
	BandAttention  Band = "ATENCAO"
	BandModerate   Band = "MODERADO"
	BandHighRisk   Band = "ALTO_RISCO"
	BandAdequate   Band = "ADEQUADO"
	BandInadequate Band = "INADEQUADO"
)

// ClassifiedIndex is a numeric index with its band. Treat it as a value:
// an adjusted index is a new record built by ClassifyIndex.
type ClassifiedIndex struct {
	Value       float64 `json:"value"`
	Band        Band    `json:"band"`
	Description string  `json:"description"`
}

// Indices groups the seven classified indices of a result.
type Indices struct {
	Waist         ClassifiedIndex `json:"waist"`
	Hip           ClassifiedIndex `json:"hip"`
	LeanMassIndex ClassifiedIndex `json:"lean_mass_index"`
	FatMassIndex  ClassifiedIndex `json:"fat_mass_index"`
	WaistHip      ClassifiedIndex `json:"waist_hip"`
	WaistHeight   ClassifiedIndex `json:"waist_height"`
	Conicity      ClassifiedIndex `json:"conicity"`
}

// Result is the aggregate of one analysis event.
type Result struct {
	Profile      Profile        `json:"profile"`
	Measurements Measurements   `json:"measurements"`
	Composition  Composition    `json:"composition"`
	Indices      Indices        `json:"indices"`
	Score        int            `json:"score"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}
