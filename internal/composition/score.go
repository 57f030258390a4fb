package composition

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	scoreFloor = 15.0
	scoreCeil  = 100.0
)

// scoredIndices are the six indices that feed the composite score. Hip is
// reported but not scored.
var scoredIndices = []IndexName{
	IndexFatMass, IndexLeanMass, IndexWaistHip,
	IndexWaistHeight, IndexConicity, IndexWaist,
}

// ScoreBreakdown explains how a composite score was reached.
type ScoreBreakdown struct {
	Points    float64 `json:"points"`     // sum of per-index points
	GoodCount int     `json:"good_count"` // full-credit bands
	BadCount  int     `json:"bad_count"`
	Penalty   float64 `json:"penalty"` // cumulative multiplier
	Bonus     float64 `json:"bonus"`
	Raw       float64 `json:"raw"` // after compression and clamp, before rounding
	Score     int     `json:"score"`
}

// bandCredit is the share of an index's points a band earns.
func bandCredit(b Band) float64 {
	switch b {
	case BandAdequate, BandLowRisk:
		return 1
	case BandModerate, BandAttention:
		return 0.25
	case BandHighRisk, BandInadequate:
		return 0.05
	default:
		return 0
	}
}

// CompositeScore aggregates the six scored indices into the 15–100
// Grimaldi index.
func CompositeScore(ix Indices) ScoreBreakdown {
	perIndex := scoreCeil / float64(len(scoredIndices))

	points := make([]float64, 0, len(scoredIndices))
	var bd ScoreBreakdown
	for _, n := range scoredIndices {
		credit := bandCredit(ix.Get(n).Band)
		points = append(points, perIndex*credit)
		if credit == 1 {
			bd.GoodCount++
		} else {
			bd.BadCount++
		}
	}
	bd.Points = floats.Sum(points)

	bd.Penalty = 1
	if bd.BadCount >= 2 {
		bd.Penalty *= 0.75
	}
	if bd.BadCount >= 3 {
		bd.Penalty *= 0.65
	}
	if bd.BadCount >= 4 {
		bd.Penalty *= 0.55
	}
	if bd.BadCount >= 5 {
		bd.Penalty *= 0.40
	}

	switch {
	case bd.GoodCount >= 5:
		bd.Bonus = 8
	case bd.GoodCount >= 4:
		bd.Bonus = 5
	case bd.GoodCount >= 3:
		bd.Bonus = 2
	}

	x := bd.Points*bd.Penalty + bd.Bonus
	if x > 75 {
		x = 75 + (x-75)*0.15
	}
	if x > 85 {
		x = 85 + (x-85)*0.05
	}

	bd.Raw = clamp(x, scoreFloor, scoreCeil)
	bd.Score = int(math.Round(bd.Raw))
	return bd
}
