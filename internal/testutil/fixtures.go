package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
)

// DetectionOption customizes a test detection.
type DetectionOption func(*db.Detection)

// NewDetection returns an unsaved detection with plausible defaults.
func NewDetection(opts ...DetectionOption) *db.Detection {
	d := &db.Detection{
		ID:                   "det-" + randHex(8),
		SessionID:            "sess-" + randHex(6),
		Tier:                 core.TierHigh,
		Score:                0.7,
		Confidence:           0.6,
		PatternDescriptions:  []string{"Expression of hopelessness"},
		RiskFactorCount:      1,
		RiskFactorCategories: []string{"isolation"},
		SentimentComparative: -0.4,
		LibraryVersion:       core.LibraryVersion,
		DetectedAt:           time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MakeDetection creates and inserts a detection into the DB.
func MakeDetection(t *testing.T, database *db.DB, opts ...DetectionOption) *db.Detection {
	t.Helper()

	d := NewDetection(opts...)
	RequireNoError(t, database.InsertDetection(context.Background(), d), "insert detection")
	return d
}

// WithSession sets the session identifier.
func WithSession(id string) DetectionOption {
	return func(d *db.Detection) { d.SessionID = id }
}

// WithTier sets the tier.
func WithTier(tier core.SeverityTier) DetectionOption {
	return func(d *db.Detection) { d.Tier = tier }
}

// WithScore sets score and confidence.
func WithScore(score, confidence float64) DetectionOption {
	return func(d *db.Detection) {
		d.Score = score
		d.Confidence = confidence
	}
}

// WithDetectedAt overrides the detection time.
func WithDetectedAt(t time.Time) DetectionOption {
	return func(d *db.Detection) { d.DetectedAt = t }
}

// WithPatternDescriptions sets the matched pattern descriptions.
func WithPatternDescriptions(desc ...string) DetectionOption {
	return func(d *db.Detection) { d.PatternDescriptions = desc }
}

// randHex returns a cryptographically random hex string for unique test IDs.
func randHex(n int) string {
	b := make([]byte, (n+1)/2) // Each byte produces 2 hex chars
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)[:n]
}
