package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/litong-notes/ytb-chat-downloader/app/scrape"
)

const (
	signedOutMessage  = "请先登录 YouTube，登录后将自动加载频道的直播列表。"
	loadingMessage    = "正在请求频道的直播数据，请稍候…"
	emptyListMessage  = "当前频道暂无直播视频，稍后再来看看吧。"
	rssFallbackNote   = "页面抓取无结果，以下列表来自频道 RSS，状态标记不可用。"
	loginProbeMessage = "登录状态检测失败，稍后将重试。"
)

// Refresher runs one full refresh cycle. Satisfied by the pagination
// coordinator.
type Refresher interface {
	RunFullRefresh(ctx context.Context) ([]scrape.ItemRecord, error)
}

// FallbackSource supplies records from a secondary feed when a cycle
// completes with nothing.
type FallbackSource interface {
	Fetch(ctx context.Context) ([]scrape.ItemRecord, error)
}

// Recorder persists discovery history. Recording failures never affect
// the published snapshot.
type Recorder interface {
	RecordItems(items []scrape.ItemRecord, seenAt time.Time) error
	RecordCycle(result CycleResult) error
}

// CycleResult summarizes one completed (or failed) refresh cycle.
type CycleResult struct {
	ID         string
	Trigger    Trigger
	Outcome    string // success, fallback, error
	ItemCount  int
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Snapshot is what consumers see: the deduplicated, ordered list from
// the most recently completed cycle plus a status signal.
type Snapshot struct {
	Items      []scrape.ItemRecord `json:"items"`
	Status     Status              `json:"status"`
	Message    string              `json:"message"`
	LoginState string              `json:"loginState"`
	CycleID    string              `json:"cycleId,omitempty"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// Watcher owns the throttle state machine. All triggers funnel into
// Evaluate, which decides whether a full refresh is warranted given
// login state, in-flight status and the minimum refresh interval.
// Cycles are strictly serialized: the in-flight flag is the sole
// mutual-exclusion mechanism and triggers arriving during a cycle are
// ignored, not queued.
type Watcher struct {
	refresher    Refresher
	login        LoginChecker
	recorder     Recorder
	fallback     FallbackSource
	minInterval  time.Duration
	tickInterval time.Duration

	mu          sync.Mutex
	inFlight    bool
	lastSuccess time.Time
	loginState  LoginState
	snapshot    Snapshot

	triggers chan Trigger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// WatcherOptions carries the optional collaborators and intervals.
type WatcherOptions struct {
	Recorder     Recorder
	Fallback     FallbackSource
	MinInterval  time.Duration
	TickInterval time.Duration
}

func NewWatcher(refresher Refresher, login LoginChecker, opts WatcherOptions) *Watcher {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 2 * time.Minute
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		refresher:    refresher,
		login:        login,
		recorder:     opts.Recorder,
		fallback:     opts.Fallback,
		minInterval:  opts.MinInterval,
		tickInterval: opts.TickInterval,
		loginState:   LoginUnknown,
		snapshot: Snapshot{
			Status:     StatusIdle,
			Message:    "等待状态更新…",
			LoginState: LoginUnknown.String(),
			UpdatedAt:  time.Now(),
		},
		triggers: make(chan Trigger, 16),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the polling loop. An immediate evaluation seeds the
// first snapshot before the ticker takes over.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.tickInterval)
		defer ticker.Stop()

		w.Evaluate(w.ctx, TriggerNavigation)

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.Evaluate(w.ctx, TriggerTick)
			case trigger := <-w.triggers:
				w.Evaluate(w.ctx, trigger)
			}
		}
	}()
}

func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
}

// Trigger enqueues an evaluation without blocking. A full queue means
// enough wakeups are already pending; the extra one is dropped.
func (w *Watcher) Trigger(trigger Trigger) error {
	select {
	case w.triggers <- trigger:
		return nil
	case <-w.ctx.Done():
		return w.ctx.Err()
	default:
		return fmt.Errorf("trigger queue is full")
	}
}

// Snapshot returns the currently published result.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// LastSuccessfulFetchAt returns when the last cycle committed, zero if
// none has.
func (w *Watcher) LastSuccessfulFetchAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSuccess
}

// Evaluate runs the state machine once for a trigger. Login state is
// re-checked first on every trigger; only then do the in-flight and
// throttle guards apply.
func (w *Watcher) Evaluate(ctx context.Context, trigger Trigger) {
	detection, err := w.login.Check(ctx)
	if err != nil {
		slog.Warn("Login detection failed", "trigger", string(trigger), "error", err)
		w.mu.Lock()
		if w.loginState == LoginUnknown {
			w.snapshot.Status = StatusWarn
			w.snapshot.Message = loginProbeMessage
			w.snapshot.UpdatedAt = time.Now()
		}
		w.mu.Unlock()
		return
	}

	if !detection.LoggedIn {
		w.mu.Lock()
		w.loginState = LoginSignedOut
		w.lastSuccess = time.Time{}
		w.snapshot = Snapshot{
			Items:      []scrape.ItemRecord{},
			Status:     StatusWarn,
			Message:    signedOutMessage,
			LoginState: LoginSignedOut.String(),
			UpdatedAt:  time.Now(),
		}
		w.mu.Unlock()
		slog.Info("Signed out, skipping refresh", "trigger", string(trigger), "avatar", detection.AvatarDetected, "badge", detection.BadgeDetected, "sign_in_link", detection.SignInLinkDetected)
		return
	}

	w.mu.Lock()
	w.loginState = LoginSignedIn
	if w.inFlight {
		w.mu.Unlock()
		slog.Debug("Refresh already in flight, ignoring trigger", "trigger", string(trigger))
		return
	}
	if !trigger.Forced() && !w.lastSuccess.IsZero() && time.Since(w.lastSuccess) < w.minInterval {
		w.mu.Unlock()
		slog.Debug("Recently updated, next refresh not due", "trigger", string(trigger), "last_success", w.lastSuccess)
		return
	}
	w.inFlight = true
	w.snapshot.Status = StatusLoading
	w.snapshot.Message = loadingMessage
	w.snapshot.LoginState = LoginSignedIn.String()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.mu.Unlock()
	}()

	w.runCycle(ctx, trigger)
}

func (w *Watcher) runCycle(ctx context.Context, trigger Trigger) {
	cycleID := uuid.NewString()
	startedAt := time.Now()

	slog.Info("Refresh cycle started", "cycle", cycleID, "trigger", string(trigger))

	items, err := w.refresher.RunFullRefresh(ctx)
	if err != nil {
		message := fmt.Sprintf("获取直播列表失败：%s", err)
		slog.Error("Refresh cycle failed", "cycle", cycleID, "trigger", string(trigger), "error", err)

		w.mu.Lock()
		w.snapshot.Status = StatusError
		w.snapshot.Message = message
		w.snapshot.UpdatedAt = time.Now()
		w.mu.Unlock()

		w.record(CycleResult{
			ID:         cycleID,
			Trigger:    trigger,
			Outcome:    "error",
			Message:    err.Error(),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		}, nil)
		return
	}

	outcome := "success"
	status := StatusSuccess
	message := fmt.Sprintf("成功获取 %d 条直播视频。", len(items))

	if len(items) == 0 {
		message = emptyListMessage
		if w.fallback != nil {
			fbItems, fbErr := w.fallback.Fetch(ctx)
			if fbErr != nil {
				slog.Warn("Fallback source failed", "cycle", cycleID, "error", fbErr)
			} else if len(fbItems) > 0 {
				items = fbItems
				outcome = "fallback"
				status = StatusWarn
				message = rssFallbackNote
			}
		}
	}

	finishedAt := time.Now()

	w.mu.Lock()
	w.lastSuccess = finishedAt
	w.snapshot = Snapshot{
		Items:      items,
		Status:     status,
		Message:    message,
		LoginState: LoginSignedIn.String(),
		CycleID:    cycleID,
		UpdatedAt:  finishedAt,
	}
	w.mu.Unlock()

	slog.Info("Refresh cycle completed", "cycle", cycleID, "trigger", string(trigger), "outcome", outcome, "items", len(items), "duration", finishedAt.Sub(startedAt).String())

	w.record(CycleResult{
		ID:         cycleID,
		Trigger:    trigger,
		Outcome:    outcome,
		ItemCount:  len(items),
		Message:    message,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}, items)
}

func (w *Watcher) record(result CycleResult, items []scrape.ItemRecord) {
	if w.recorder == nil {
		return
	}
	if len(items) > 0 {
		if err := w.recorder.RecordItems(items, result.FinishedAt); err != nil {
			slog.Warn("Failed to record items", "cycle", result.ID, "error", err)
		}
	}
	if err := w.recorder.RecordCycle(result); err != nil {
		slog.Warn("Failed to record cycle", "cycle", result.ID, "error", err)
	}
}
