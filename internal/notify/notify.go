// Package notify raises reviewer alerts for newly recorded crisis detections.
//
// A Watcher polls the audit store and sends one desktop notification per
// detection at or above its minimum tier. Alerts never carry message text;
// the store does not hold any.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
)

// lookback bounds how far behind the newest poll a detection may be dated
// and still alert. Audit writes are asynchronous and retried, so a record can
// land some time after its detection timestamp.
const lookback = 15 * time.Minute

// maxDescriptionRunes bounds the pattern descriptions shown in an alert.
const maxDescriptionRunes = 140

// Store is the part of the audit store the watcher reads.
type Store interface {
	ListDetections(ctx context.Context, f db.DetectionFilter) ([]*db.Detection, error)
}

// Notifier delivers one alert.
type Notifier interface {
	Notify(title, message string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string) error

func (f NotifierFunc) Notify(title, message string) error {
	return f(title, message)
}

// Options configure a Watcher.
type Options struct {
	// MinTier is the lowest tier that alerts; empty means high.
	MinTier core.SeverityTier
	// Desktop sends platform notifications; when false only OnAlert runs.
	Desktop bool
	// Notifier overrides the platform notifier.
	Notifier Notifier
	// OnAlert is called for every new detection, desktop or not.
	OnAlert func(d *db.Detection)
	Logger  *log.Logger
}

// Watcher polls an audit store for new detections.
type Watcher struct {
	store    Store
	minTier  core.SeverityTier
	desktop  bool
	notifier Notifier
	onAlert  func(d *db.Detection)
	logger   *log.Logger
	now      func() time.Time
	started  time.Time

	mu       sync.Mutex
	notified map[string]time.Time
}

// NewWatcher builds a watcher that alerts on detections dated after its
// construction.
func NewWatcher(store Store, opts Options) *Watcher {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(SendDesktopNotification)
	}
	if opts.MinTier == "" {
		opts.MinTier = core.TierHigh
	}
	w := &Watcher{
		store:    store,
		minTier:  opts.MinTier,
		desktop:  opts.Desktop,
		notifier: opts.Notifier,
		onAlert:  opts.OnAlert,
		logger:   opts.Logger,
		now:      time.Now,
		notified: make(map[string]time.Time),
	}
	w.started = w.now().UTC()
	return w
}

// Run polls every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	if w == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				w.logger.Warn("checking audit store", "error", err)
			}
		}
	}
}

// Check alerts on every detection not seen before and returns how many it
// alerted on. Notification failures are logged, not returned.
func (w *Watcher) Check(ctx context.Context) (int, error) {
	if w == nil || w.store == nil {
		return 0, nil
	}

	now := w.now().UTC()
	since := now.Add(-lookback)
	if since.Before(w.started) {
		since = w.started
	}

	detections, err := w.store.ListDetections(ctx, db.DetectionFilter{MinTier: w.minTier, Since: since})
	if err != nil {
		return 0, fmt.Errorf("listing detections: %w", err)
	}

	alerted := 0
	// Oldest first so alerts arrive in detection order.
	for i := len(detections) - 1; i >= 0; i-- {
		d := detections[i]
		if d == nil || d.Tier.Rank() < w.minTier.Rank() {
			continue
		}
		if !w.markOnce(d.ID, d.DetectedAt) {
			continue
		}
		alerted++
		if w.onAlert != nil {
			w.onAlert(d)
		}
		if !w.desktop {
			continue
		}
		title, message := Format(d)
		if err := w.notifier.Notify(title, message); err != nil {
			w.logger.Warn("desktop notification failed", "error", err, "detection", shortID(d.ID))
		}
	}
	w.forgetBefore(since)
	return alerted, nil
}

func (w *Watcher) markOnce(key string, at time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.notified[key]; ok {
		return false
	}
	w.notified[key] = at
	return true
}

// forgetBefore drops dedupe entries that can no longer be returned by a poll.
func (w *Watcher) forgetBefore(cutoff time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, at := range w.notified {
		if at.Before(cutoff) {
			delete(w.notified, k)
		}
	}
}

// Format renders the title and body of an alert for d.
func Format(d *db.Detection) (string, string) {
	title := fmt.Sprintf("Lifeline: %s detection", strings.ToUpper(string(d.Tier)))
	lines := []string{
		fmt.Sprintf("Session %s · score %.2f · confidence %.2f", d.SessionID, d.Score, d.Confidence),
	}
	if len(d.PatternDescriptions) > 0 {
		lines = append(lines, truncate(strings.Join(d.PatternDescriptions, "; "), maxDescriptionRunes))
	}
	lines = append(lines, "ID: "+shortID(d.ID))
	return title, strings.Join(lines, "\n")
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// SendDesktopNotification sends a best-effort desktop notification on the current platform.
func SendDesktopNotification(title, message string) error {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		title = "Lifeline"
	}
	if message == "" {
		return fmt.Errorf("message is required")
	}

	switch runtime.GOOS {
	case "darwin":
		if _, err := exec.LookPath("osascript"); err != nil {
			return fmt.Errorf("osascript not found")
		}
		script := fmt.Sprintf(
			`display notification "%s" with title "%s"`,
			escapeAppleScript(message),
			escapeAppleScript(title),
		)
		return runNoOutput("osascript", "-e", script)
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			return fmt.Errorf("notify-send not found")
		}
		return runNoOutput("notify-send", "--urgency=critical", title, message)
	case "windows":
		return errors.New("desktop notifications not implemented on windows")
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func runNoOutput(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
