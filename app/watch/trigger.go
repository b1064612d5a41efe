package watch

// Trigger identifies what prompted a refresh evaluation. Every source
// of wakeups funnels through the same evaluation path so the throttle
// rules apply uniformly.
type Trigger string

const (
	// TriggerTick fires on the fixed polling interval.
	TriggerTick Trigger = "tick"
	// TriggerVisibility fires when the watched page becomes visible
	// again after being backgrounded.
	TriggerVisibility Trigger = "visibility"
	// TriggerNavigation fires on an upstream navigation event.
	TriggerNavigation Trigger = "navigation"
	// TriggerManual fires on an explicit refresh request and bypasses
	// the minimum-interval throttle.
	TriggerManual Trigger = "manual"
)

// Forced reports whether the trigger overrides the minimum refresh
// interval. In-flight cycles are never preempted, forced or not.
func (t Trigger) Forced() bool {
	return t == TriggerManual
}

// Status is the coarse state surfaced to consumers alongside the
// current video list.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusWarn    Status = "warn"
	StatusError   Status = "error"
)
