package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Dicklesworthstone/lifeline/internal/core"
	"github.com/Dicklesworthstone/lifeline/internal/db"
	"github.com/Dicklesworthstone/lifeline/internal/testutil"
)

type call struct {
	title   string
	message string
}

func recorder(calls *[]call) Notifier {
	return NotifierFunc(func(title, message string) error {
		*calls = append(*calls, call{title, message})
		return nil
	})
}

func TestWatcherAlertsOncePerDetection(t *testing.T) {
	database := testutil.NewTestDB(t)
	var calls []call
	w := NewWatcher(database, Options{Desktop: true, Notifier: recorder(&calls), Logger: testutil.TestLogger(t)})

	testutil.MakeDetection(t, database,
		testutil.WithSession("chat-1"),
		testutil.WithTier(core.TierCritical),
		testutil.WithPatternDescriptions("Explicit suicidal intent"),
	)

	n, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 1, n, "alerted")
	testutil.RequireLen(t, calls, 1, "notifications")
	testutil.RequireContains(t, calls[0].title, "CRITICAL", "title")
	testutil.RequireContains(t, calls[0].message, "chat-1", "message session")
	testutil.RequireContains(t, calls[0].message, "Explicit suicidal intent", "message patterns")

	n, err = w.Check(context.Background())
	testutil.RequireNoError(t, err, "second check")
	testutil.RequireEqual(t, 0, n, "debounced")
	testutil.RequireLen(t, calls, 1, "no repeat notification")
}

func TestWatcherRespectsMinTier(t *testing.T) {
	database := testutil.NewTestDB(t)
	var calls []call
	w := NewWatcher(database, Options{MinTier: core.TierCritical, Desktop: true, Notifier: recorder(&calls)})

	testutil.MakeDetection(t, database, testutil.WithTier(core.TierHigh))
	testutil.MakeDetection(t, database, testutil.WithTier(core.TierMedium))

	n, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 0, n, "below min tier")

	testutil.MakeDetection(t, database, testutil.WithTier(core.TierCritical))
	n, err = w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 1, n, "critical alerts")
}

func TestWatcherIgnoresDetectionsBeforeStart(t *testing.T) {
	database := testutil.NewTestDB(t)
	testutil.MakeDetection(t, database,
		testutil.WithTier(core.TierCritical),
		testutil.WithDetectedAt(time.Now().UTC().Add(-time.Minute)),
	)

	var calls []call
	w := NewWatcher(database, Options{Desktop: true, Notifier: recorder(&calls)})

	n, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 0, n, "historical detections do not alert")
}

func TestWatcherWithoutDesktopStillCallsOnAlert(t *testing.T) {
	database := testutil.NewTestDB(t)
	var seen []string
	w := NewWatcher(database, Options{
		Desktop: false,
		Notifier: NotifierFunc(func(title, message string) error {
			t.Fatalf("desktop notifier should not be called")
			return nil
		}),
		OnAlert: func(d *db.Detection) { seen = append(seen, d.SessionID) },
	})

	testutil.MakeDetection(t, database, testutil.WithSession("first"), testutil.WithDetectedAt(time.Now().UTC().Add(time.Second)))
	testutil.MakeDetection(t, database, testutil.WithSession("second"), testutil.WithDetectedAt(time.Now().UTC().Add(2*time.Second)))

	n, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 2, n, "alerted")
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("alerts out of detection order: %v", seen)
	}
}

func TestWatcherNotifierFailureIsLogged(t *testing.T) {
	database := testutil.NewTestDB(t)
	w := NewWatcher(database, Options{
		Desktop:  true,
		Notifier: NotifierFunc(func(title, message string) error { return errors.New("no display") }),
		Logger:   testutil.TestLogger(t),
	})
	testutil.MakeDetection(t, database, testutil.WithTier(core.TierCritical))

	n, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "notifier failures are not check errors")
	testutil.RequireEqual(t, 1, n, "still counted")
}

type failingStore struct{}

func (failingStore) ListDetections(context.Context, db.DetectionFilter) ([]*db.Detection, error) {
	return nil, errors.New("database is locked")
}

func TestWatcherStoreError(t *testing.T) {
	w := NewWatcher(failingStore{}, Options{})
	if _, err := w.Check(context.Background()); err == nil || !strings.Contains(err.Error(), "locked") {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestWatcherForgetsOldEntries(t *testing.T) {
	database := testutil.NewTestDB(t)
	w := NewWatcher(database, Options{OnAlert: func(*db.Detection) {}})

	start := time.Now().UTC()
	w.started = start
	testutil.MakeDetection(t, database, testutil.WithDetectedAt(start.Add(time.Second)))

	_, err := w.Check(context.Background())
	testutil.RequireNoError(t, err, "check")
	testutil.RequireEqual(t, 1, len(w.notified), "tracked")

	w.now = func() time.Time { return start.Add(lookback + time.Hour) }
	_, err = w.Check(context.Background())
	testutil.RequireNoError(t, err, "later check")
	testutil.RequireEqual(t, 0, len(w.notified), "dedupe entries pruned")
}

func TestFormatTruncatesDescriptions(t *testing.T) {
	d := testutil.NewDetection(
		testutil.WithTier(core.TierHigh),
		testutil.WithPatternDescriptions(strings.Repeat("x", 300)),
	)
	title, message := Format(d)
	testutil.RequireEqual(t, "Lifeline: HIGH detection", title, "title")
	if !strings.Contains(message, "…") {
		t.Errorf("expected long descriptions to be truncated: %q", message)
	}
	testutil.RequireContains(t, message, "ID: "+d.ID[:8], "short id")
}

func TestFormatTruncatesOnRuneBoundaries(t *testing.T) {
	d := testutil.NewDetection(
		testutil.WithTier(core.TierCritical),
		testutil.WithPatternDescriptions(strings.Repeat("é", 139)+"日本語"),
	)
	_, message := Format(d)
	if !utf8.ValidString(message) {
		t.Fatalf("alert is not valid UTF-8: %q", message)
	}
	testutil.RequireContains(t, message, strings.Repeat("é", 139)+"日…", "cut after 140 runes")
	if strings.Contains(message, "本") {
		t.Errorf("expected text past 140 runes to be cut: %q", message)
	}
}

func TestTruncate(t *testing.T) {
	testutil.RequireEqual(t, "short", truncate("short", 10), "unchanged")
	testutil.RequireEqual(t, "ab…", truncate("abc", 2), "cut")
	testutil.RequireEqual(t, "дв…", truncate("два", 2), "cyrillic")
}

func TestEscapeAppleScript(t *testing.T) {
	got := escapeAppleScript("say \"hi\"\nback\\slash")
	want := `say \"hi\"\nback\\slash`
	testutil.RequireEqual(t, want, got, "escaped")
}

func TestSendDesktopNotificationRequiresMessage(t *testing.T) {
	if err := SendDesktopNotification("title", "   "); err == nil {
		t.Fatal("expected error for empty message")
	}
}
