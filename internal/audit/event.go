// Package audit records crisis detections for safety review.
//
// Events carry the tier, scores and pattern descriptions of a detection but
// never the message text or matched substrings. Delivery is asynchronous to
// the reply path; high and critical events are retried until written or until
// the attempt budget runs out, and that failure is surfaced to the caller.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
)

// Event is one audited detection.
type Event struct {
	ID                   string            `json:"id"`
	SessionID            string            `json:"session_id"`
	Tier                 core.SeverityTier `json:"tier"`
	Score                float64           `json:"score"`
	Confidence           float64           `json:"confidence"`
	PatternDescriptions  []string          `json:"pattern_descriptions"`
	RiskFactorCount      int               `json:"risk_factor_count"`
	RiskFactorCategories []string          `json:"risk_factor_categories"`
	SentimentComparative float64           `json:"sentiment_comparative"`
	SentimentFault       bool              `json:"sentiment_fault"`
	LibraryVersion       string            `json:"library_version"`
	LibraryHash          string            `json:"library_hash"`
	Timestamp            time.Time         `json:"timestamp"`
}

// NewEvent builds an event from a scoring result. sessionID is opaque to the
// audit trail.
func NewEvent(sessionID string, r core.Result) Event {
	return Event{
		ID:                   uuid.New().String(),
		SessionID:            sessionID,
		Tier:                 r.Tier,
		Score:                r.Score,
		Confidence:           r.Confidence,
		PatternDescriptions:  append([]string{}, r.MatchedPatternDescriptions...),
		RiskFactorCount:      r.RiskFactorCount(),
		RiskFactorCategories: append([]string{}, r.RiskFactorCategories...),
		SentimentComparative: r.Sentiment.Comparative,
		SentimentFault:       r.SentimentFault,
		Timestamp:            time.Now().UTC(),
	}
}

// IsCrisisTier reports whether the event needs at-least-once delivery.
func (e Event) IsCrisisTier() bool {
	return e.Tier.IsCrisisTier()
}

// Detection converts e to its stored form.
func (e Event) Detection() *db.Detection {
	return &db.Detection{
		ID:                   e.ID,
		SessionID:            e.SessionID,
		Tier:                 e.Tier,
		Score:                e.Score,
		Confidence:           e.Confidence,
		PatternDescriptions:  e.PatternDescriptions,
		RiskFactorCount:      e.RiskFactorCount,
		RiskFactorCategories: e.RiskFactorCategories,
		SentimentComparative: e.SentimentComparative,
		SentimentFault:       e.SentimentFault,
		LibraryVersion:       e.LibraryVersion,
		LibraryHash:          e.LibraryHash,
		DetectedAt:           e.Timestamp,
	}
}
