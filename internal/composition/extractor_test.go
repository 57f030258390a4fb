package composition

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimaldi/internal/pose"
)

// frontalPose builds a 1000x2000 frontal detection with hip joints at the
// given normalized x positions. Nose-to-ankle spans 1800 px.
func frontalPose(leftHipX, rightHipX float64) *pose.Result {
	lm := make([]pose.Landmark, 33)
	for i := range lm {
		lm[i] = pose.Landmark{X: 0.5, Y: 0.5, Visibility: 0.9}
	}
	lm[pose.Nose] = pose.Landmark{X: 0.5, Y: 0.05}
	lm[pose.LeftShoulder] = pose.Landmark{X: 0.40, Y: 0.20}
	lm[pose.LeftElbow] = pose.Landmark{X: 0.38, Y: 0.36}
	lm[pose.LeftWrist] = pose.Landmark{X: 0.37, Y: 0.49}
	lm[pose.LeftHip] = pose.Landmark{X: leftHipX, Y: 0.50}
	lm[pose.RightHip] = pose.Landmark{X: rightHipX, Y: 0.50}
	lm[pose.LeftKnee] = pose.Landmark{X: leftHipX, Y: 0.72}
	lm[pose.LeftAnkle] = pose.Landmark{X: leftHipX, Y: 0.95}
	return &pose.Result{View: pose.ViewFrontal, ImageWidth: 1000, ImageHeight: 2000, Landmarks: lm}
}

func TestExtract_CalibratedPaths(t *testing.T) {
	tests := []struct {
		name     string
		heightM  float64
		weightKg float64
		sex      Sex
		want     func(base float64, k Kind, bmi float64) float64
	}{
		{"ectomorph", 1.80, 60, SexMale, func(base float64, k Kind, _ float64) float64 {
			return base * ectomorphCorrection[k]
		}},
		{"eutrophic male", 1.75, 65, SexMale, func(base float64, _ Kind, _ float64) float64 {
			return base
		}},
		{"eutrophic female", 1.65, 60, SexFemale, func(base float64, _ Kind, _ float64) float64 {
			return base
		}},
		{"endomorph", 1.71, 85, SexMale, func(base float64, k Kind, bmi float64) float64 {
			v := base * endomorphCorrection[k]
			if k.Trunk() {
				v *= 1 + (bmi-25)*0.022
			}
			return v
		}},
	}

	ex := NewExtractor(ModeCalibrated)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ex.Extract(frontalPose(0.45, 0.55), tt.heightM, tt.weightKg, tt.sex)
			require.NoError(t, err)

			bmi := tt.weightKg / (tt.heightM * tt.heightM)
			for _, k := range Kinds {
				base := tt.heightM * 100 * ProportionRatio(tt.sex, k)
				assert.InDelta(t, tt.want(base, k, bmi), got.Get(k), 0.051, "kind %s", k)
			}
		})
	}
}

func TestCalibrated_EutrophicBoundariesIgnoreFactor(t *testing.T) {
	ex := NewExtractor(ModeCalibrated)
	// BMI exactly 21 and 26 stay on the plain proportion.
	for _, bmi := range []float64{21, 26} {
		got := ex.calibrated(170, bmi, SexMale)
		assert.InDelta(t, 170*ProportionRatio(SexMale, KindWaist), got.Waist, 0.051, "bmi %v", bmi)
		assert.InDelta(t, 170*ProportionRatio(SexMale, KindArms), got.Arms, 0.051, "bmi %v", bmi)
	}
	// just outside the band the corrections kick in
	assert.Less(t, ex.calibrated(170, 20.99, SexMale).Waist, 170*ProportionRatio(SexMale, KindWaist))
	assert.Greater(t, ex.calibrated(170, 26.01, SexMale).Waist, 170*ProportionRatio(SexMale, KindWaist))
}

func TestExtract_MissingLandmarks(t *testing.T) {
	ex := NewExtractor(ModeCalibrated)

	_, err := ex.Extract(nil, 1.75, 70, SexMale)
	assert.ErrorIs(t, err, ErrLandmarksMissing)

	short := frontalPose(0.45, 0.55)
	short.Landmarks = short.Landmarks[:20]
	_, err = ex.Extract(short, 1.75, 70, SexMale)
	assert.ErrorIs(t, err, ErrLandmarksMissing)

	bad := frontalPose(0.45, 0.55)
	bad.Landmarks[pose.LeftKnee].X = math.NaN()
	_, err = ex.Extract(bad, 1.75, 70, SexMale)
	assert.ErrorIs(t, err, ErrLandmarksMissing)
}

func TestExtract_InvalidProfile(t *testing.T) {
	_, err := NewExtractor(ModeCalibrated).Extract(frontalPose(0.45, 0.55), 0, 70, SexMale)
	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Dados do perfil inválidos", ve.Message)
}

func TestExtract_HybridBlendsWithinThreshold(t *testing.T) {
	ex := NewExtractor(ModeHybrid)
	// Female, BMI ≈ 22.0: 30% vision, 40% safety threshold.
	got, err := ex.Extract(frontalPose(0.42, 0.58), 1.65, 60, SexFemale)
	require.NoError(t, err)

	// vision waist ≈ 62.8, statistical 71.775
	assert.InDelta(t, 69.1, got.Waist, 0.051)
	// vision hip ≈ 79.0, statistical 96.525
	assert.InDelta(t, 91.3, got.Hip, 0.051)
}

func TestExtract_HybridRejectsFarVision(t *testing.T) {
	ex := NewExtractor(ModeHybrid)
	// Narrow hips put vision ~50% below the statistical value.
	got, err := ex.Extract(frontalPose(0.45, 0.55), 1.75, 70, SexMale)
	require.NoError(t, err)

	assert.InDelta(t, 175*0.470, got.Waist, 0.051)
	assert.InDelta(t, 175*0.555, got.Hip, 0.051)
}

func TestExtract_HybridCapsLeanMaleTrunk(t *testing.T) {
	ex := NewExtractor(ModeHybrid)
	// Wide hips: blend would be ~85.9 / ~103.7, cap is 102% of baseline.
	got, err := ex.Extract(frontalPose(0.3865, 0.6135), 1.75, 70, SexMale)
	require.NoError(t, err)

	assert.InDelta(t, 83.9, got.Waist, 0.051)
	assert.InDelta(t, 99.1, got.Hip, 0.051)
}

func TestExtract_HybridNeedsImageSize(t *testing.T) {
	p := frontalPose(0.42, 0.58)
	p.ImageHeight = 0
	_, err := NewExtractor(ModeHybrid).Extract(p, 1.65, 60, SexFemale)
	assert.ErrorIs(t, err, ErrLandmarksMissing)
}

func TestProportionalMeasurements(t *testing.T) {
	for _, sex := range []Sex{SexMale, SexFemale} {
		height := 1.72
		m := ProportionalMeasurements(height, sex)
		for _, k := range Kinds {
			assert.Equal(t, height*100*ProportionRatio(sex, k), m.Get(k), "%s %s", sex, k)
		}
	}
}

func TestEllipsePerimeter(t *testing.T) {
	// circle of radius 10
	assert.InDelta(t, 2*math.Pi*10, EllipsePerimeter(10, 10), 1e-9)
	// a=5, b=3: reference value 25.5270
	assert.InDelta(t, 25.527, EllipsePerimeter(5, 3), 0.001)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeHybrid, ParseMode("hybrid"))
	assert.Equal(t, ModeCalibrated, ParseMode("calibrated"))
	assert.Equal(t, ModeCalibrated, ParseMode(""))
	assert.Equal(t, ModeCalibrated, NewExtractor("whatever").Mode())
}
