package composition

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"grimaldi/internal/log"
	"grimaldi/internal/pose"
)

// Mode selects how the extractor turns landmarks into circumferences.
type Mode string

const (
	// ModeCalibrated applies the biotype calibration paths and ignores
	// vision widths. BMI bands cover every value, so vision never blends.
	ModeCalibrated Mode = "calibrated"
	// ModeHybrid blends landmark widths with the statistical estimate.
	ModeHybrid Mode = "hybrid"
)

// ParseMode returns the mode named s, defaulting to ModeCalibrated.
func ParseMode(s string) Mode {
	if Mode(s) == ModeHybrid {
		return ModeHybrid
	}
	return ModeCalibrated
}

const (
	// Above this distance from the pure proportion a warning is logged.
	marginOfErrorCm = 5.0
	// Slope of the progressive trunk factor on the endomorph path.
	trunkProgressSlope = 0.022
	// Blended trunk values for lean males may not exceed the baseline by more.
	lowBMIMaleTrunkCap = 1.02
)

var requiredLandmarks = []int{
	pose.Nose, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
	pose.LeftHip, pose.RightHip, pose.LeftKnee, pose.LeftAnkle,
}

// widthProxy derives a frontal width from the pixel distance between two
// landmarks.
type widthProxy struct {
	from, to int
	scale    float64
}

var widthProxies = map[Kind]widthProxy{
	KindWaist:    {pose.LeftHip, pose.RightHip, 1.55},
	KindHip:      {pose.LeftHip, pose.RightHip, 1.90},
	KindThighs:   {pose.LeftHip, pose.LeftKnee, 0.38},
	KindCalves:   {pose.LeftKnee, pose.LeftAnkle, 0.27},
	KindArms:     {pose.LeftShoulder, pose.LeftElbow, 0.33},
	KindForearms: {pose.LeftElbow, pose.LeftWrist, 0.30},
}

// Extractor converts a frontal pose result into six circumferences.
type Extractor struct {
	mode   Mode
	logger *slog.Logger
}

// NewExtractor creates an extractor working in the given mode.
func NewExtractor(mode Mode) *Extractor {
	return &Extractor{
		mode:   ParseMode(string(mode)),
		logger: log.With("component", "extractor"),
	}
}

// Mode returns the configured extraction mode.
func (e *Extractor) Mode() Mode {
	return e.mode
}

// Extract computes the six measurements for one person. It fails with
// ErrLandmarksMissing when the pose lacks a required keypoint.
func (e *Extractor) Extract(res *pose.Result, heightM, weightKg float64, sex Sex) (Measurements, error) {
	if heightM <= 0 || weightKg <= 0 {
		return Measurements{}, ValidationError{Field: "profile", Message: msgInvalidProfile}
	}
	if res == nil {
		return Measurements{}, ErrLandmarksMissing
	}
	for _, idx := range requiredLandmarks {
		if _, ok := res.Landmark(idx); !ok {
			return Measurements{}, fmt.Errorf("%w: index %d", ErrLandmarksMissing, idx)
		}
	}

	heightCm := heightM * 100
	bmi := weightKg / (heightM * heightM)

	var (
		out Measurements
		err error
	)
	if e.mode == ModeHybrid {
		out, err = e.hybrid(res, heightCm, bmi, sex)
	} else {
		out = e.calibrated(heightCm, bmi, sex)
	}
	if err != nil {
		return Measurements{}, err
	}

	e.checkMargins(out, heightCm, sex)
	return out, nil
}

// calibrated runs the per-biotype paths. The eutrophic range uses the plain
// proportion; the female eutrophic variant is the same range and has no
// separate branch.
func (e *Extractor) calibrated(heightCm, bmi float64, sex Sex) Measurements {
	var out Measurements
	for _, k := range Kinds {
		base := proportionBase(heightCm, sex, k)

		var v float64
		switch ClassifyBiotype(bmi) {
		case Ectomorph:
			v = base * ectomorphCorrection[k]
		case Eutrophic:
			v = base
		case Endomorph:
			v = base * endomorphCorrection[k]
			if k.Trunk() {
				v *= 1 + (bmi-25)*trunkProgressSlope
			}
		}
		out = out.With(k, scalar.Round(v, 1))
	}
	return out
}

func (e *Extractor) hybrid(res *pose.Result, heightCm, bmi float64, sex Sex) (Measurements, error) {
	w, h := float64(res.ImageWidth), float64(res.ImageHeight)
	if w <= 0 || h <= 0 {
		return Measurements{}, fmt.Errorf("%w: image size unknown", ErrLandmarksMissing)
	}

	nose, _ := res.Landmark(pose.Nose)
	ankle, _ := res.Landmark(pose.LeftAnkle)
	heightPx := math.Abs(ankle.Y-nose.Y) * h
	if heightPx < 1 {
		return Measurements{}, fmt.Errorf("%w: degenerate height baseline", ErrLandmarksMissing)
	}
	cmPerPx := heightCm / heightPx

	threshold := safetyThreshold(sex, bmi)
	wVision := visionWeight(bmi)

	var out Measurements
	for _, k := range Kinds {
		statistical := proportionBase(heightCm, sex, k) * BiotypeFactor(bmi, k)

		p := widthProxies[k]
		a, _ := res.Landmark(p.from)
		b, _ := res.Landmark(p.to)
		widthCm := math.Hypot((a.X-b.X)*w, (a.Y-b.Y)*h) * cmPerPx * p.scale
		vision := circumferenceFromWidth(widthCm, k)

		v := statistical
		deviation := math.Abs(vision-statistical) / statistical
		if deviation > threshold {
			e.logger.Info("оценка по фото отклонена",
				"kind", k,
				"vision_cm", scalar.Round(vision, 1),
				"statistical_cm", scalar.Round(statistical, 1),
				"deviation", scalar.Round(deviation, 3),
				"threshold", threshold,
			)
		} else {
			v = wVision*vision + (1-wVision)*statistical
		}

		if sex == SexMale && bmi < 23 && k.Trunk() {
			v = math.Min(v, statistical*lowBMIMaleTrunkCap)
		}
		out = out.With(k, scalar.Round(v, 1))
	}
	return out, nil
}

// safetyThreshold is the relative deviation above which the vision estimate
// is discarded.
func safetyThreshold(sex Sex, bmi float64) float64 {
	switch {
	case sex == SexFemale:
		return 0.40
	case bmi < 23:
		return 0.25
	default:
		return 0.30
	}
}

// visionWeight is the share of the vision estimate in the blend.
func visionWeight(bmi float64) float64 {
	switch {
	case bmi < 23:
		return 0.30
	case bmi > 26:
		return 0.50
	default:
		return 0.60
	}
}

// checkMargins logs values far from the plain proportion. Informational
// only; nothing is corrected.
func (e *Extractor) checkMargins(m Measurements, heightCm float64, sex Sex) {
	for _, k := range Kinds {
		ref := proportionBase(heightCm, sex, k)
		if diff := m.Get(k) - ref; math.Abs(diff) > marginOfErrorCm {
			e.logger.Warn("мера вне допустимой погрешности",
				"kind", k,
				"value_cm", m.Get(k),
				"reference_cm", scalar.Round(ref, 1),
				"diff_cm", scalar.Round(diff, 1),
			)
		}
	}
}
