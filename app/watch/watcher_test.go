package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
)

type fakeLoginChecker struct {
	detection LoginDetection
	err       error
}

func (f *fakeLoginChecker) Check(ctx context.Context) (LoginDetection, error) {
	return f.detection, f.err
}

type fakeRefresher struct {
	calls   atomic.Int32
	items   []scrape.ItemRecord
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRefresher) RunFullRefresh(ctx context.Context) ([]scrape.ItemRecord, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.items, f.err
}

func signedIn() *fakeLoginChecker {
	return &fakeLoginChecker{detection: LoginDetection{LoggedIn: true, AvatarDetected: true}}
}

func signedOut() *fakeLoginChecker {
	return &fakeLoginChecker{detection: LoginDetection{SignInLinkDetected: true}}
}

func testRecords(ids ...string) []scrape.ItemRecord {
	records := make([]scrape.ItemRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, scrape.ItemRecord{
			ID:           id,
			Title:        "Stream " + id,
			CanonicalURL: scrape.WatchURL(id),
		})
	}
	return records
}

func TestEvaluateThrottlesUnforcedTriggers(t *testing.T) {
	refresher := &fakeRefresher{items: testRecords("v1")}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: 120 * time.Second})

	w.Evaluate(context.Background(), TriggerTick)
	w.Evaluate(context.Background(), TriggerTick)

	if got := refresher.calls.Load(); got != 1 {
		t.Errorf("Expected exactly 1 network cycle under throttle, got %d", got)
	}

	snap := w.Snapshot()
	if snap.Status != StatusSuccess {
		t.Errorf("Expected success status, got: %s", snap.Status)
	}
	if len(snap.Items) != 1 || snap.Items[0].ID != "v1" {
		t.Errorf("Unexpected snapshot items: %+v", snap.Items)
	}
}

func TestEvaluateManualTriggerBypassesThrottle(t *testing.T) {
	refresher := &fakeRefresher{items: testRecords("v1")}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: 120 * time.Second})

	w.Evaluate(context.Background(), TriggerTick)
	w.Evaluate(context.Background(), TriggerManual)

	if got := refresher.calls.Load(); got != 2 {
		t.Errorf("Expected manual trigger to force a second cycle, got %d", got)
	}
}

func TestEvaluateSignedOut(t *testing.T) {
	refresher := &fakeRefresher{items: testRecords("v1")}
	checker := signedIn()
	w := NewWatcher(refresher, checker, WatcherOptions{MinInterval: time.Millisecond})

	w.Evaluate(context.Background(), TriggerTick)
	if w.LastSuccessfulFetchAt().IsZero() {
		t.Fatal("Expected a successful fetch timestamp")
	}

	// The session expires; the next trigger must clear the throttle
	// timestamp and publish the sign-in hint without fetching.
	checker.detection = LoginDetection{SignInLinkDetected: true}
	w.Evaluate(context.Background(), TriggerTick)

	if got := refresher.calls.Load(); got != 1 {
		t.Errorf("Expected no fetch while signed out, got %d calls", got)
	}
	if !w.LastSuccessfulFetchAt().IsZero() {
		t.Error("Expected lastSuccessfulFetchAt to be cleared when signed out")
	}

	snap := w.Snapshot()
	if snap.Status != StatusWarn {
		t.Errorf("Expected warn status, got: %s", snap.Status)
	}
	if len(snap.Items) != 0 {
		t.Errorf("Expected empty item list, got %d items", len(snap.Items))
	}
	if snap.Message != signedOutMessage {
		t.Errorf("Expected sign-in message, got: %s", snap.Message)
	}
	if snap.LoginState != "signed-out" {
		t.Errorf("Expected signed-out login state, got: %s", snap.LoginState)
	}
}

func TestEvaluateHardFailureKeepsRetryEligibility(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("HTTP error: 500")}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: 120 * time.Second})

	w.Evaluate(context.Background(), TriggerTick)

	if !w.LastSuccessfulFetchAt().IsZero() {
		t.Error("Expected lastSuccessfulFetchAt unchanged after hard failure")
	}
	if snap := w.Snapshot(); snap.Status != StatusError {
		t.Errorf("Expected error status, got: %s", snap.Status)
	}

	// A failed cycle must not start the throttle window: the very next
	// unforced trigger retries.
	w.Evaluate(context.Background(), TriggerTick)
	if got := refresher.calls.Load(); got != 2 {
		t.Errorf("Expected retry on next trigger, got %d calls", got)
	}
}

func TestEvaluateIgnoresTriggersWhileInFlight(t *testing.T) {
	refresher := &fakeRefresher{
		items:   testRecords("v1"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: time.Millisecond})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Evaluate(context.Background(), TriggerTick)
	}()

	<-refresher.started

	// Triggers during an in-flight cycle are ignored, not queued.
	w.Evaluate(context.Background(), TriggerManual)
	w.Evaluate(context.Background(), TriggerVisibility)

	close(refresher.release)
	wg.Wait()

	if got := refresher.calls.Load(); got != 1 {
		t.Errorf("Expected 1 cycle, got %d", got)
	}
}

func TestEvaluateFallbackSourceOnEmptyCycle(t *testing.T) {
	refresher := &fakeRefresher{items: []scrape.ItemRecord{}}
	fallback := &fakeFallback{items: testRecords("rss1", "rss2")}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: time.Millisecond, Fallback: fallback})

	w.Evaluate(context.Background(), TriggerTick)

	snap := w.Snapshot()
	if snap.Status != StatusWarn {
		t.Errorf("Expected warn status for fallback results, got: %s", snap.Status)
	}
	if len(snap.Items) != 2 {
		t.Fatalf("Expected 2 fallback items, got %d", len(snap.Items))
	}
	if w.LastSuccessfulFetchAt().IsZero() {
		t.Error("Expected fallback cycle to count as completed")
	}
}

func TestEvaluateEmptyCycleWithoutFallback(t *testing.T) {
	refresher := &fakeRefresher{items: []scrape.ItemRecord{}}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: time.Millisecond})

	w.Evaluate(context.Background(), TriggerTick)

	snap := w.Snapshot()
	if snap.Status != StatusSuccess {
		t.Errorf("Expected success status for a legitimately empty list, got: %s", snap.Status)
	}
	if snap.Message != emptyListMessage {
		t.Errorf("Expected empty-list message, got: %s", snap.Message)
	}
}

func TestEvaluateRecordsHistory(t *testing.T) {
	refresher := &fakeRefresher{items: testRecords("v1", "v2")}
	recorder := &fakeRecorder{}
	w := NewWatcher(refresher, signedIn(), WatcherOptions{MinInterval: time.Millisecond, Recorder: recorder})

	w.Evaluate(context.Background(), TriggerManual)

	if recorder.itemCount != 2 {
		t.Errorf("Expected 2 items recorded, got %d", recorder.itemCount)
	}
	if len(recorder.cycles) != 1 {
		t.Fatalf("Expected 1 cycle recorded, got %d", len(recorder.cycles))
	}

	cycle := recorder.cycles[0]
	if cycle.Outcome != "success" {
		t.Errorf("Expected success outcome, got: %s", cycle.Outcome)
	}
	if cycle.Trigger != TriggerManual {
		t.Errorf("Expected manual trigger recorded, got: %s", cycle.Trigger)
	}
	if cycle.ID == "" {
		t.Error("Expected a cycle ID")
	}
}

type fakeFallback struct {
	items []scrape.ItemRecord
	err   error
}

func (f *fakeFallback) Fetch(ctx context.Context) ([]scrape.ItemRecord, error) {
	return f.items, f.err
}

type fakeRecorder struct {
	itemCount int
	cycles    []CycleResult
}

func (f *fakeRecorder) RecordItems(items []scrape.ItemRecord, seenAt time.Time) error {
	f.itemCount += len(items)
	return nil
}

func (f *fakeRecorder) RecordCycle(result CycleResult) error {
	f.cycles = append(f.cycles, result)
	return nil
}
