package db

import (
	"context"
	"fmt"
	"time"

	"github.com/Dicklesworthstone/lifeline/internal/core"
)

// SessionSummary aggregates the detections recorded for one session.
type SessionSummary struct {
	SessionID   string            `json:"session_id"`
	Detections  int               `json:"detections"`
	HighestTier core.SeverityTier `json:"highest_tier"`
	FirstSeen   time.Time         `json:"first_seen"`
	LastSeen    time.Time         `json:"last_seen"`
}

// ListSessions summarizes sessions with at least one detection, most recently
// active first. A non-empty prefix restricts session IDs; limit <= 0 means all.
func (db *DB) ListSessions(ctx context.Context, prefix string, limit int) ([]SessionSummary, error) {
	query := `SELECT session_id, COUNT(*), MAX(tier_rank), MIN(detected_at), MAX(detected_at)
		FROM detections`
	var args []any
	if prefix != "" {
		query += ` WHERE instr(session_id, ?) = 1`
		args = append(args, prefix)
	}
	query += ` GROUP BY session_id ORDER BY MAX(detected_at) DESC, session_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		var rank int
		var first, last string
		if err := rows.Scan(&s.SessionID, &s.Detections, &rank, &first, &last); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.HighestTier = tierForRank(rank)
		if s.FirstSeen, err = time.Parse(timeLayout, first); err != nil {
			return nil, fmt.Errorf("parsing first_seen: %w", err)
		}
		if s.LastSeen, err = time.Parse(timeLayout, last); err != nil {
			return nil, fmt.Errorf("parsing last_seen: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return out, nil
}

func tierForRank(rank int) core.SeverityTier {
	for _, t := range core.AllTiers() {
		if t.Rank() == rank {
			return t
		}
	}
	return ""
}
