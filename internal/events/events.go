// Package events publishes domain events about finished analyses.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TypeAnalysisCompleted is the routing name of AnalysisCompleted.
const TypeAnalysisCompleted = "analysis.completed"

// AnalysisCompleted is emitted after an analysis row has been stored.
type AnalysisCompleted struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	AnalysisID string    `json:"analysis_id"`
	UserID     int64     `json:"user_id"`
	Score      int       `json:"score"`
	FatPercent float64   `json:"fat_percent"`
	VisionUsed bool      `json:"vision_used"`
	Replaces   string    `json:"replaces,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAnalysisCompleted fills the event id, type and timestamp.
func NewAnalysisCompleted(analysisID string, userID int64, score int, fatPercent float64, visionUsed bool) AnalysisCompleted {
	return AnalysisCompleted{
		EventID:    uuid.New().String(),
		Type:       TypeAnalysisCompleted,
		AnalysisID: analysisID,
		UserID:     userID,
		Score:      score,
		FatPercent: fatPercent,
		VisionUsed: visionUsed,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode returns the JSON body of the event.
func (e AnalysisCompleted) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Delivery is best-effort: callers log errors
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, e AnalysisCompleted) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, AnalysisCompleted) error { return nil }

func (Noop) Close() error { return nil }
