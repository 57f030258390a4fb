package composition

import "math"

// Biotype is a coarse body-composition category derived from BMI.
type Biotype string

const (
	Ectomorph Biotype = "ectomorfo"
	Eutrophic Biotype = "eutrofico"
	Endomorph Biotype = "endomorfo"
)

// BMI cut points of the biotype label.
const (
	ectomorphMaxBMI = 21.0 // exclusive
	endomorphMinBMI = 26.0 // exclusive
)

// ClassifyBiotype maps BMI to a biotype label: < 21 ectomorph, > 26
// endomorph, otherwise eutrophic.
//
// The breakpoints differ from BiotypeFactor's step table. The two are kept
// separate on purpose; merging them would change extracted values.
func ClassifyBiotype(bmi float64) Biotype {
	switch {
	case !(bmi >= ectomorphMaxBMI): // also catches NaN
		return Ectomorph
	case bmi > endomorphMinBMI:
		return Endomorph
	default:
		return Eutrophic
	}
}

type factorStep struct {
	below  float64 // upper bound, exclusive
	factor float64
}

// Trunk steps are coarser and never shrink the estimate.
var trunkFactorSteps = []factorStep{
	{26.5, 1.00},
	{28, 1.04},
	{29.5, 1.08},
	{32, 1.12},
}

const trunkFactorMax = 1.18

var limbFactorSteps = []factorStep{
	{21, 0.88},
	{23, 0.94},
	{26, 1.00},
	{27, 1.03},
	{28, 1.06},
	{29.5, 1.09},
	{32, 1.12},
}

const limbFactorMax = 1.15

// BiotypeFactor returns the multiplicative correction for a measurement
// kind at the given BMI. Each BMI falls in exactly one step; the last step
// is open-ended.
func BiotypeFactor(bmi float64, kind Kind) float64 {
	steps, top := limbFactorSteps, limbFactorMax
	if kind.Trunk() {
		steps, top = trunkFactorSteps, trunkFactorMax
	}
	if math.IsNaN(bmi) {
		return steps[0].factor
	}
	for _, s := range steps {
		if bmi < s.below {
			return s.factor
		}
	}
	return top
}
