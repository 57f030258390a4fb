package composition

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	fatPercentMin = 3.0
	fatPercentMax = 50.0
	// Fraction of lean mass that is water.
	leanWaterFraction = 0.723
)

// ComputeComposition derives fat, lean mass, BMR and body water from the
// measurements and profile. Inputs must already be validated.
func ComputeComposition(m Measurements, p Profile) Composition {
	bmi := p.BMI()

	fatPercent := deurenbergFatPercent(bmi, float64(p.Age), p.Sex)
	fatPercent *= waistHipAdjustment(m.Waist/m.Hip, p.Sex)
	fatPercent = scalar.Round(clamp(fatPercent, fatPercentMin, fatPercentMax), 1)

	fatMass := scalar.Round(fatPercent/100*p.WeightKg, 1)
	leanMass := scalar.Round(p.WeightKg-fatMass, 1)

	// Cunningham
	bmr := int(math.Round(500 + 22*leanMass))

	water := leanMass * leanWaterFraction

	return Composition{
		BMI:              scalar.Round(bmi, 2),
		FatPercent:       fatPercent,
		FatMassKg:        fatMass,
		LeanMassKg:       leanMass,
		BMR:              bmr,
		BodyWaterL:       scalar.Round(water, 1),
		BodyWaterPercent: scalar.Round(water/p.WeightKg*100, 1),
	}
}

// deurenbergFatPercent: 1.20·BMI + 0.23·age − 10.8·sex − 5.4, sex = 1 for men.
func deurenbergFatPercent(bmi, age float64, sex Sex) float64 {
	sexIndicator := 0.0
	if sex == SexMale {
		sexIndicator = 1
	}
	return 1.20*bmi + 0.23*age - 10.8*sexIndicator - 5.4
}

// waistHipAdjustment interpolates a correction from the waist/hip ratio.
// Men: 0.75 at ≤0.84 up to 0.83 at ≥0.87. Women: 1.04 at ≤0.78 up to 1.08
// at ≥0.85.
func waistHipAdjustment(ratio float64, sex Sex) float64 {
	if sex == SexMale {
		return lerpClamped(ratio, 0.84, 0.87, 0.75, 0.83)
	}
	return lerpClamped(ratio, 0.78, 0.85, 1.04, 1.08)
}

// lerpClamped maps x in [x0, x1] linearly onto [y0, y1], holding the ends.
func lerpClamped(x, x0, x1, y0, y1 float64) float64 {
	if x <= x0 {
		return y0
	}
	if x >= x1 {
		return y1
	}
	return y0 + (x-x0)/(x1-x0)*(y1-y0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
