package composition

import (
	"math"
	"testing"
)

func TestClassifyBiotype(t *testing.T) {
	tests := []struct {
		bmi  float64
		want Biotype
	}{
		{0, Ectomorph},
		{-3, Ectomorph},
		{math.NaN(), Ectomorph},
		{18.5, Ectomorph},
		{20.999, Ectomorph},
		{21, Eutrophic}, // inclusive lower bound
		{23.5, Eutrophic},
		{26, Eutrophic}, // inclusive upper bound
		{26.001, Endomorph},
		{26.5, Endomorph},
		{27, Endomorph},
		{28, Endomorph},
		{29.5, Endomorph},
		{32, Endomorph},
		{55, Endomorph},
	}

	for _, tt := range tests {
		if got := ClassifyBiotype(tt.bmi); got != tt.want {
			t.Errorf("ClassifyBiotype(%v) = %v, want %v", tt.bmi, got, tt.want)
		}
	}
}

func TestBiotypeFactor_Trunk(t *testing.T) {
	tests := []struct {
		bmi  float64
		want float64
	}{
		{15, 1.00},
		{21, 1.00},
		{26, 1.00},
		{26.49, 1.00},
		{26.5, 1.04},
		{27, 1.04},
		{27.99, 1.04},
		{28, 1.08},
		{29.49, 1.08},
		{29.5, 1.12},
		{31.99, 1.12},
		{32, 1.18},
		{45, 1.18},
	}

	for _, tt := range tests {
		for _, k := range []Kind{KindWaist, KindHip} {
			if got := BiotypeFactor(tt.bmi, k); got != tt.want {
				t.Errorf("BiotypeFactor(%v, %s) = %v, want %v", tt.bmi, k, got, tt.want)
			}
		}
	}
}

func TestBiotypeFactor_Limbs(t *testing.T) {
	tests := []struct {
		bmi  float64
		want float64
	}{
		{17, 0.88},
		{20.99, 0.88},
		{21, 0.94},
		{22.99, 0.94},
		{23, 1.00},
		{25.99, 1.00},
		{26, 1.03},
		{26.5, 1.03},
		{27, 1.06},
		{28, 1.09},
		{29.5, 1.12},
		{32, 1.15},
		{60, 1.15},
	}

	limbs := []Kind{KindArms, KindForearms, KindThighs, KindCalves}
	for _, tt := range tests {
		for _, k := range limbs {
			if got := BiotypeFactor(tt.bmi, k); got != tt.want {
				t.Errorf("BiotypeFactor(%v, %s) = %v, want %v", tt.bmi, k, got, tt.want)
			}
		}
	}
}

// Every BMI must land in exactly one step, and the factor must never
// decrease as BMI grows.
func TestBiotypeFactor_Partition(t *testing.T) {
	for _, k := range Kinds {
		prev := 0.0
		for bmi := 10.0; bmi <= 50; bmi += 0.05 {
			got := BiotypeFactor(bmi, k)
			if got < prev {
				t.Fatalf("BiotypeFactor(%v, %s) = %v decreased from %v", bmi, k, got, prev)
			}
			prev = got
		}
	}

	if got := BiotypeFactor(math.NaN(), KindWaist); got != 1.00 {
		t.Errorf("BiotypeFactor(NaN, waist) = %v, want 1.00", got)
	}
	if got := BiotypeFactor(math.NaN(), KindArms); got != 0.88 {
		t.Errorf("BiotypeFactor(NaN, arms) = %v, want 0.88", got)
	}
}
