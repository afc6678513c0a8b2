package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/lifeline/internal/core"
)

// ErrCrisisLoggedUnreliably is returned through a Receipt when a high or
// critical event could not be written. Callers must escalate it rather than
// swallow it.
var ErrCrisisLoggedUnreliably = errors.New("crisis detection could not be audited")

// ErrLoggerClosed is wrapped into receipts for events recorded after Close.
var ErrLoggerClosed = errors.New("audit logger closed")

// Config tunes the delivery queue and the crisis-tier retry policy.
type Config struct {
	QueueSize      int           `json:"queue_size" mapstructure:"queue_size"`
	Workers        int           `json:"workers" mapstructure:"workers"`
	MaxAttempts    int           `json:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `json:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff" mapstructure:"max_backoff"`
	// WriteTimeout bounds a single sink write.
	WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
}

// DefaultConfig returns the stock delivery settings.
func DefaultConfig() Config {
	return Config{
		QueueSize:      256,
		Workers:        2,
		MaxAttempts:    6,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = max(d.MaxBackoff, c.InitialBackoff)
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Receipt resolves once an event has been delivered or given up on.
type Receipt struct {
	EventID string
	Tier    core.SeverityTier

	done    chan struct{}
	err     error
	written bool
}

func newReceipt(e Event) *Receipt {
	return &Receipt{EventID: e.ID, Tier: e.Tier, done: make(chan struct{})}
}

func (r *Receipt) resolve(err error) {
	r.err = err
	close(r.done)
}

func (r *Receipt) resolveWritten() {
	r.written = true
	close(r.done)
}

// Written reports whether the event reached the sink. It is false until Done
// is closed, and stays false for dropped best-effort events.
func (r *Receipt) Written() bool {
	select {
	case <-r.done:
		return r.written
	default:
		return false
	}
}

// Done is closed when the receipt resolves.
func (r *Receipt) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until delivery finishes or ctx is done. Once resolved it returns
// nil for delivered events and for dropped non-crisis events (which are best
// effort; check Written), and an error wrapping ErrCrisisLoggedUnreliably when
// a crisis-tier write failed. If ctx ends first, crisis-tier events get an
// error wrapping ErrCrisisLoggedUnreliably and other events get ctx.Err().
func (r *Receipt) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		if r.Tier.IsCrisisTier() {
			return fmt.Errorf("%w: still pending: %w", ErrCrisisLoggedUnreliably, ctx.Err())
		}
		return ctx.Err()
	}
}

type job struct {
	event   Event
	receipt *Receipt
}

// Logger delivers events to a Sink on background workers.
type Logger struct {
	sink    Sink
	cfg     Config
	logger  *log.Logger
	metrics *Metrics

	libraryVersion string
	libraryHash    string

	queue   chan job
	workers sync.WaitGroup
	spill   sync.WaitGroup

	// stopCtx aborts in-flight retries when Close runs out of time.
	stopCtx context.Context
	stop    context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the operational logger used for delivery warnings.
func WithLogger(logger *log.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics shares a metrics set instead of creating a private one.
func WithMetrics(m *Metrics) Option {
	return func(l *Logger) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithLibrary stamps every event with the pattern library that scored it.
func WithLibrary(lib *core.PatternLibrary) Option {
	return func(l *Logger) {
		if lib != nil {
			l.libraryVersion = lib.Version()
			l.libraryHash = lib.ComputeHash()
		}
	}
}

// NewLogger starts cfg.Workers delivery goroutines writing to sink.
func NewLogger(sink Sink, cfg Config, opts ...Option) *Logger {
	stopCtx, stop := context.WithCancel(context.Background())
	l := &Logger{
		sink:    sink,
		cfg:     cfg.withDefaults(),
		logger:  log.Default(),
		stopCtx: stopCtx,
		stop:    stop,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = NewMetrics()
	}

	l.queue = make(chan job, l.cfg.QueueSize)
	for i := 0; i < l.cfg.Workers; i++ {
		l.workers.Add(1)
		go l.work()
	}
	return l
}

// Metrics returns the logger's counters.
func (l *Logger) Metrics() *Metrics {
	return l.metrics
}

// Record queues the detection for delivery and returns immediately. ctx is
// only consulted for its values; cancelling it does not abort delivery.
func (l *Logger) Record(ctx context.Context, sessionID string, r core.Result) *Receipt {
	e := NewEvent(sessionID, r)
	return l.RecordEvent(ctx, e)
}

// RecordEvent queues a prepared event.
func (l *Logger) RecordEvent(_ context.Context, e Event) *Receipt {
	if e.LibraryVersion == "" {
		e.LibraryVersion = l.libraryVersion
	}
	if e.LibraryHash == "" {
		e.LibraryHash = l.libraryHash
	}
	receipt := newReceipt(e)
	l.metrics.Detections.WithLabelValues(string(e.Tier)).Inc()

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.fail(job{event: e, receipt: receipt}, ErrLoggerClosed)
		return receipt
	}

	j := job{event: e, receipt: receipt}
	select {
	case l.queue <- j:
	default:
		if e.IsCrisisTier() {
			// Never drop a crisis event on a full queue.
			l.logger.Warn("audit queue full, delivering crisis event directly", "id", e.ID, "tier", e.Tier)
			l.spill.Add(1)
			go func() {
				defer l.spill.Done()
				l.deliver(j)
			}()
		} else {
			l.fail(j, errors.New("audit queue full"))
		}
	}
	return receipt
}

// Close stops accepting events and waits for queued deliveries. If ctx ends
// first, pending retries are abandoned and their receipts resolve with
// ErrCrisisLoggedUnreliably.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.workers.Wait()
		l.spill.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.stop()
		return nil
	case <-ctx.Done():
		l.stop()
		return fmt.Errorf("draining audit queue: %w", ctx.Err())
	}
}

func (l *Logger) work() {
	defer l.workers.Done()
	for j := range l.queue {
		l.deliver(j)
	}
}

func (l *Logger) deliver(j job) {
	if !j.event.IsCrisisTier() {
		if err := l.write(j.event); err != nil {
			l.fail(j, err)
			return
		}
		l.metrics.Written.Inc()
		j.receipt.resolveWritten()
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.InitialBackoff
	b.MaxInterval = l.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(l.cfg.MaxAttempts-1)), l.stopCtx)

	var lastErr error
	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		lastErr = l.write(j.event)
		return lastErr
	}, policy, func(err error, wait time.Duration) {
		l.metrics.Retries.Inc()
		l.logger.Warn("audit write failed, retrying",
			"id", j.event.ID, "tier", j.event.Tier, "attempt", attempts, "wait", wait, "err", err)
	})
	if err == nil {
		l.metrics.Written.Inc()
		j.receipt.resolveWritten()
		return
	}
	if lastErr == nil {
		lastErr = err
	}
	l.fail(j, fmt.Errorf("after %d attempts: %w", attempts, lastErr))
}

func (l *Logger) write(e Event) error {
	ctx, cancel := context.WithTimeout(l.stopCtx, l.cfg.WriteTimeout)
	defer cancel()
	return l.sink.Write(ctx, e)
}

// fail resolves a receipt for an event that was not written.
func (l *Logger) fail(j job, err error) {
	e := j.event
	l.metrics.WriteFailures.WithLabelValues(string(e.Tier)).Inc()
	if e.IsCrisisTier() {
		l.logger.Error("crisis detection not audited", "id", e.ID, "session", e.SessionID, "tier", e.Tier, "err", err)
		j.receipt.resolve(fmt.Errorf("%w: %w", ErrCrisisLoggedUnreliably, err))
		return
	}
	l.metrics.Dropped.Inc()
	l.logger.Warn("audit event dropped", "id", e.ID, "tier", e.Tier, "err", err)
	j.receipt.resolve(nil)
}
