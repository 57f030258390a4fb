// Package pose describes pose-estimation results and the sources that
// produce them. Landmark indices follow the MediaPipe BlazePose model.
package pose

import (
	"context"
	"errors"
	"math"
)

// ErrVisionUnavailable is returned when the pose backend cannot load or
// process an image.
var ErrVisionUnavailable = errors.New("pose: vision unavailable")

// View tags the camera angle of a photo.
type View string

const (
	ViewFrontal View = "frontal"
	ViewLateral View = "lateral"
)

// BlazePose landmark indices used by the measurement extractor.
const (
	Nose          = 0
	LeftShoulder  = 11
	RightShoulder = 12
	LeftElbow     = 13
	LeftWrist     = 15
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	LeftAnkle     = 27
)

// Landmark is a single keypoint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Valid reports whether both coordinates are finite numbers.
func (l Landmark) Valid() bool {
	return !math.IsNaN(l.X) && !math.IsNaN(l.Y) && !math.IsInf(l.X, 0) && !math.IsInf(l.Y, 0)
}

// Result holds the landmarks detected on one image.
type Result struct {
	View        View       `json:"view"`
	ImageWidth  int        `json:"image_width"`
	ImageHeight int        `json:"image_height"`
	Landmarks   []Landmark `json:"landmarks"`
}

// Landmark returns the keypoint at idx, or false if it was not detected.
func (r *Result) Landmark(idx int) (Landmark, bool) {
	if r == nil || idx < 0 || idx >= len(r.Landmarks) {
		return Landmark{}, false
	}
	l := r.Landmarks[idx]
	if !l.Valid() {
		return Landmark{}, false
	}
	return l, true
}

// Request asks for landmarks of one photo.
type Request struct {
	View     View
	ImageURL string
}

// Source runs pose estimation. Only the views present in reqs are
// processed, so callers decide whether the lateral photo is worth the cost.
type Source interface {
	Detect(ctx context.Context, reqs []Request) (map[View]*Result, error)
}

// Static is a Source backed by precomputed results. Useful for tests and
// for replaying stored detections.
type Static map[View]*Result

// Detect returns the stored results for the requested views.
func (s Static) Detect(_ context.Context, reqs []Request) (map[View]*Result, error) {
	out := make(map[View]*Result, len(reqs))
	for _, req := range reqs {
		res, ok := s[req.View]
		if !ok {
			return nil, ErrVisionUnavailable
		}
		out[req.View] = res
	}
	return out, nil
}
