package composition

// AnalyzeComposition validates the inputs and runs composition, index
// classification and scoring. It has no side effects: equal inputs give
// equal results.
func AnalyzeComposition(m *Measurements, p *Profile) (*Result, error) {
	if m == nil || p == nil {
		return nil, ValidationError{Field: "input", Message: msgInsufficientData}
	}
	if err := ValidateProfile(*p); err != nil {
		return nil, err
	}
	if err := ValidateMeasurements(*m); err != nil {
		return nil, err
	}

	comp := ComputeComposition(*m, *p)
	indices := ClassifyAll(ComputeIndexValues(*m, comp, *p), p.Sex)
	bd := CompositeScore(indices)

	return &Result{
		Profile:      *p,
		Measurements: *m,
		Composition:  comp,
		Indices:      indices,
		Score:        bd.Score,
		Breakdown:    bd,
	}, nil
}

// ValidateProfile rejects non-positive height, weight or age.
func ValidateProfile(p Profile) error {
	if !(p.HeightM > 0) || !(p.WeightKg > 0) || p.Age <= 0 {
		return ValidationError{Field: "profile", Message: msgInvalidProfile}
	}
	return nil
}

// ValidateMeasurements requires all six measurements to be positive.
func ValidateMeasurements(m Measurements) error {
	for _, k := range Kinds {
		if !(m.Get(k) > 0) {
			return ValidationError{Field: string(k), Message: msgMissingMeasure + k.Label()}
		}
	}
	return nil
}
