package composition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeComposition_Male(t *testing.T) {
	p := Profile{HeightM: 1.71, WeightKg: 85, Age: 28, Sex: SexMale}
	m := Measurements{Arms: 33, Forearms: 29, Waist: 89, Hip: 102, Thighs: 58, Calves: 39}

	c := ComputeComposition(m, p)

	assert.Equal(t, 29.07, c.BMI)
	// Deurenberg 25.12 * 0.83 (waist/hip 0.873 ≥ 0.87)
	assert.Equal(t, 20.9, c.FatPercent)
	assert.InDelta(t, 17.77, c.FatMassKg, 0.051)
	assert.InDelta(t, p.WeightKg-c.FatMassKg, c.LeanMassKg, 0.051)
	assert.Equal(t, int(math.Round(500+22*c.LeanMassKg)), c.BMR)
	assert.InDelta(t, c.LeanMassKg*0.723, c.BodyWaterL, 0.051)
	assert.InDelta(t, c.BodyWaterL/p.WeightKg*100, c.BodyWaterPercent, 0.1)
}

func TestComputeComposition_FemaleAdjustment(t *testing.T) {
	p := Profile{HeightM: 1.65, WeightKg: 60, Age: 35, Sex: SexFemale}
	// Deurenberg: 1.2*22.04 + 0.23*35 - 5.4 = 29.095
	base := 1.2*p.BMI() + 0.23*35 - 5.4

	tests := []struct {
		name   string
		waist  float64
		hip    float64
		factor float64
	}{
		{"low ratio", 70, 100, 1.04},
		{"high ratio", 90, 100, 1.08},
		{"midpoint", 81.5, 100, 1.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measurements{Arms: 28, Forearms: 23, Waist: tt.waist, Hip: tt.hip, Thighs: 55, Calves: 35}
			c := ComputeComposition(m, p)
			assert.InDelta(t, base*tt.factor, c.FatPercent, 0.051)
		})
	}
}

func TestComputeComposition_FatPercentClamp(t *testing.T) {
	m := Measurements{Arms: 30, Forearms: 25, Waist: 80, Hip: 100, Thighs: 50, Calves: 35}

	lean := ComputeComposition(m, Profile{HeightM: 2.00, WeightKg: 55, Age: 5, Sex: SexMale})
	assert.Equal(t, 3.0, lean.FatPercent)

	heavy := ComputeComposition(m, Profile{HeightM: 1.50, WeightKg: 160, Age: 80, Sex: SexFemale})
	assert.Equal(t, 50.0, heavy.FatPercent)
}

func TestWaistHipAdjustment(t *testing.T) {
	tests := []struct {
		ratio float64
		sex   Sex
		want  float64
	}{
		{0.80, SexMale, 0.75},
		{0.84, SexMale, 0.75},
		{0.855, SexMale, 0.79},
		{0.87, SexMale, 0.83},
		{1.00, SexMale, 0.83},
		{0.70, SexFemale, 1.04},
		{0.78, SexFemale, 1.04},
		{0.815, SexFemale, 1.06},
		{0.85, SexFemale, 1.08},
		{0.95, SexFemale, 1.08},
	}

	for _, tt := range tests {
		got := waistHipAdjustment(tt.ratio, tt.sex)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("waistHipAdjustment(%v, %s) = %v, want %v", tt.ratio, tt.sex, got, tt.want)
		}
	}
}
