package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/lifeline/internal/db"
)

// Sink persists events. Write must be safe for concurrent use and idempotent
// on Event.ID, since crisis-tier events may be written more than once.
type Sink interface {
	Write(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// DBSink writes events to the SQLite audit store.
type DBSink struct {
	db *db.DB
}

// NewDBSink returns a sink backed by database.
func NewDBSink(database *db.DB) *DBSink {
	return &DBSink{db: database}
}

// Write implements Sink.
func (s *DBSink) Write(ctx context.Context, e Event) error {
	if s.db == nil {
		return fmt.Errorf("audit database not configured")
	}
	return s.db.InsertDetection(ctx, e.Detection())
}

// LogSink writes each event as one structured log line.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink returns a sink that logs through logger (log.Default() if nil).
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Write implements Sink.
func (s *LogSink) Write(_ context.Context, e Event) error {
	kv := []any{
		"id", e.ID,
		"session", e.SessionID,
		"tier", e.Tier,
		"score", fmt.Sprintf("%.2f", e.Score),
		"confidence", fmt.Sprintf("%.2f", e.Confidence),
		"patterns", strings.Join(e.PatternDescriptions, "; "),
		"risk_factors", e.RiskFactorCount,
		"sentiment", fmt.Sprintf("%.2f", e.SentimentComparative),
		"library", e.LibraryVersion,
	}
	if e.IsCrisisTier() {
		s.logger.Warn("crisis detection", kv...)
	} else {
		s.logger.Info("detection", kv...)
	}
	return nil
}

// MultiSink fans an event out to every sink. The write succeeds only if all
// sinks succeed.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
