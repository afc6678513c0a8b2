package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/lifeline/internal/core"
)

// ErrDetectionNotFound is returned when a detection is not found.
var ErrDetectionNotFound = errors.New("detection not found")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Detection is one audited crisis detection. It never carries message text or
// matched substrings.
type Detection struct {
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
	DetectedAt           time.Time         `json:"detected_at"`
	RecordedAt           time.Time         `json:"recorded_at"`
}

// DetectionFilter narrows ListDetections. Zero values match everything.
type DetectionFilter struct {
	SessionID string
	// MinTier keeps detections at or above this tier.
	MinTier core.SeverityTier
	Since   time.Time
	Until   time.Time
	Limit   int
}

// InsertDetection stores d. The insert is idempotent on ID so a retried write
// never duplicates a row. An empty ID is filled with a new UUID.
func (db *DB) InsertDetection(ctx context.Context, d *Detection) error {
	if d == nil {
		return fmt.Errorf("detection is required")
	}
	if d.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if !d.Tier.Valid() {
		return fmt.Errorf("invalid tier %q", d.Tier)
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now().UTC()
	}
	d.RecordedAt = time.Now().UTC()

	descriptions, err := encodeStrings(d.PatternDescriptions)
	if err != nil {
		return fmt.Errorf("encoding pattern_descriptions: %w", err)
	}
	categories, err := encodeStrings(d.RiskFactorCategories)
	if err != nil {
		return fmt.Errorf("encoding risk_factor_categories: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO detections (id, session_id, tier, tier_rank, score, confidence, pattern_descriptions,
			risk_factor_count, risk_factor_categories, sentiment_comparative, sentiment_fault,
			library_version, library_hash, detected_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, d.ID, d.SessionID, string(d.Tier), d.Tier.Rank(), d.Score, d.Confidence, descriptions,
		d.RiskFactorCount, categories, d.SentimentComparative, boolToInt(d.SentimentFault),
		d.LibraryVersion, d.LibraryHash, formatTime(d.DetectedAt), formatTime(d.RecordedAt))
	if err != nil {
		return fmt.Errorf("inserting detection: %w", err)
	}
	return nil
}

// GetDetection retrieves a detection by ID.
func (db *DB) GetDetection(ctx context.Context, id string) (*Detection, error) {
	row := db.QueryRowContext(ctx, `SELECT `+detectionColumns+` FROM detections WHERE id = ?`, id)
	d, err := scanDetection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetectionNotFound
	}
	return d, err
}

// ListDetections returns detections matching f, newest first.
func (db *DB) ListDetections(ctx context.Context, f DetectionFilter) ([]*Detection, error) {
	var where []string
	var args []any
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.MinTier != "" {
		if !f.MinTier.Valid() {
			return nil, fmt.Errorf("invalid tier %q", f.MinTier)
		}
		where = append(where, "tier_rank >= ?")
		args = append(args, f.MinTier.Rank())
	}
	if !f.Since.IsZero() {
		where = append(where, "detected_at >= ?")
		args = append(args, formatTime(f.Since))
	}
	if !f.Until.IsZero() {
		where = append(where, "detected_at < ?")
		args = append(args, formatTime(f.Until))
	}

	query := `SELECT ` + detectionColumns + ` FROM detections`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY detected_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}
	defer rows.Close()

	var out []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating detections: %w", err)
	}
	return out, nil
}

// CountDetectionsByTier counts detections per tier since the given time. A
// zero since counts everything. Every tier is present in the result.
func (db *DB) CountDetectionsByTier(ctx context.Context, since time.Time) (map[core.SeverityTier]int, error) {
	query := `SELECT tier, COUNT(*) FROM detections`
	var args []any
	if !since.IsZero() {
		query += ` WHERE detected_at >= ?`
		args = append(args, formatTime(since))
	}
	query += ` GROUP BY tier`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting detections: %w", err)
	}
	defer rows.Close()

	counts := make(map[core.SeverityTier]int, 4)
	for _, t := range core.AllTiers() {
		counts[t] = 0
	}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, fmt.Errorf("scanning tier count: %w", err)
		}
		counts[core.SeverityTier(tier)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tier counts: %w", err)
	}
	return counts, nil
}

// DeleteDetectionsBefore removes detections older than cutoff and returns how
// many were removed.
func (db *DB) DeleteDetectionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM detections WHERE detected_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("deleting detections: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

const detectionColumns = `id, session_id, tier, score, confidence, pattern_descriptions, risk_factor_count,
	risk_factor_categories, sentiment_comparative, sentiment_fault, library_version, library_hash,
	detected_at, recorded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row rowScanner) (*Detection, error) {
	d := &Detection{}
	var tier, descriptions, categories, detectedAt, recordedAt string
	var fault int
	err := row.Scan(&d.ID, &d.SessionID, &tier, &d.Score, &d.Confidence, &descriptions,
		&d.RiskFactorCount, &categories, &d.SentimentComparative, &fault, &d.LibraryVersion,
		&d.LibraryHash, &detectedAt, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning detection: %w", err)
	}
	d.Tier = core.SeverityTier(tier)
	d.SentimentFault = fault != 0

	if err := json.Unmarshal([]byte(descriptions), &d.PatternDescriptions); err != nil {
		return nil, fmt.Errorf("decoding pattern_descriptions: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &d.RiskFactorCategories); err != nil {
		return nil, fmt.Errorf("decoding risk_factor_categories: %w", err)
	}
	if d.DetectedAt, err = time.Parse(timeLayout, detectedAt); err != nil {
		return nil, fmt.Errorf("parsing detected_at: %w", err)
	}
	if d.RecordedAt, err = time.Parse(timeLayout, recordedAt); err != nil {
		return nil, fmt.Errorf("parsing recorded_at: %w", err)
	}
	return d, nil
}

func encodeStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
