package composition

// Circumference-to-height ratios per sex.
var proportionRatios = map[Sex]map[Kind]float64{
	SexMale: {
		KindArms:     0.190,
		KindForearms: 0.165,
		KindWaist:    0.470,
		KindHip:      0.555,
		KindThighs:   0.325,
		KindCalves:   0.215,
	},
	SexFemale: {
		KindArms:     0.175,
		KindForearms: 0.145,
		KindWaist:    0.435,
		KindHip:      0.585,
		KindThighs:   0.340,
		KindCalves:   0.210,
	},
}

// Fixed corrections applied on the ectomorph path (BMI < 21).
var ectomorphCorrection = map[Kind]float64{
	KindWaist:    0.92,
	KindHip:      0.94,
	KindThighs:   0.90,
	KindCalves:   0.93,
	KindArms:     0.88,
	KindForearms: 0.92,
}

// Fixed corrections applied on the endomorph path (BMI > 26).
var endomorphCorrection = map[Kind]float64{
	KindWaist:    1.10,
	KindHip:      1.08,
	KindThighs:   1.10,
	KindCalves:   1.06,
	KindArms:     1.12,
	KindForearms: 1.07,
}

// Cross-section depth/width ratio used for the ellipse perimeter.
var depthRatios = map[Kind]float64{
	KindWaist:    0.75,
	KindHip:      0.80,
	KindThighs:   0.95,
	KindCalves:   0.90,
	KindArms:     0.95,
	KindForearms: 0.85,
}

// ProportionRatio returns the circumference/height ratio for sex and kind.
// Unknown sex falls back to the male table.
func ProportionRatio(sex Sex, kind Kind) float64 {
	table, ok := proportionRatios[sex]
	if !ok {
		table = proportionRatios[SexMale]
	}
	return table[kind]
}

// proportionBase is heightCm * ratio with no biotype adjustment.
func proportionBase(heightCm float64, sex Sex, kind Kind) float64 {
	return heightCm * ProportionRatio(sex, kind)
}

// ProportionalMeasurements estimates all six circumferences from height
// alone. It is the fallback when vision data cannot be used and never fails
// for a positive height. Values are raw heightCm*ratio; callers apply
// Measurements.Clamp before analysis, which rounds and bounds them.
func ProportionalMeasurements(heightM float64, sex Sex) Measurements {
	heightCm := heightM * 100
	var m Measurements
	for _, k := range Kinds {
		m = m.With(k, proportionBase(heightCm, sex, k))
	}
	return m
}
