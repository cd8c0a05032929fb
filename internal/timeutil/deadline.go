// Package timeutil implements the deadline timer primitive.
package timeutil

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/gograce/internal/errorutil"
	"github.com/ghettovoice/gograce/timing"
)

// State represents the current state of a deadline timer.
type State int32

const (
	// StateArmed indicates the timer is counting down towards its deadline.
	StateArmed State = iota
	// StateFired indicates the deadline elapsed before cancellation.
	StateFired
	// StateCancelled indicates the timer was cancelled before its deadline.
	StateCancelled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeadlineTimer is a one-shot timer that notifies once when its fixed time
// budget elapses. It moves from [StateArmed] to exactly one of [StateFired]
// or [StateCancelled]; the transition is resolved with a compare-and-swap on
// the state field, so a firing racing a [DeadlineTimer.Cancel] settles on a
// single winner and the loser's side effect is suppressed: a lost firing
// delivers no notification, a lost cancel releases nothing.
//
// The timer never touches caller data; scheduling and releasing its wake-up
// is its only side effect.
type DeadlineTimer struct {
	// state holds the State value and is the single source of truth
	// for the timer lifecycle.
	state atomic.Int32
	// budget is the total duration the timer runs, fixed at arm time.
	budget time.Duration
	// armedAt is the timestamp when the timer was armed.
	armedAt time.Time
	// deadline is armedAt plus budget.
	deadline time.Time
	// endAt is set by the winning terminal transition only; readers fall
	// back to the clock while it is in flight.
	endAt atomic.Pointer[time.Time]
	// notify is invoked exactly once if the timer fires. Bound at arm time.
	notify func()
	// wake is the underlying scheduled wake-up.
	wake timing.Timer
}

// Arm creates a timer that fires after the given budget and then invokes
// notify in the wake-up goroutine. The budget must be strictly positive,
// otherwise [errorutil.ErrInvalidBudget] is returned and nothing is scheduled.
// A nil notify is allowed; the timer then only tracks state.
func Arm(budget time.Duration, notify func()) (*DeadlineTimer, error) {
	if budget <= 0 {
		return nil, errtrace.Wrap(errorutil.NewInvalidBudgetError("must be positive, got %v", budget))
	}
	return newTimer(budget, notify), nil
}

// ArmAt creates a timer that fires at the given deadline. A deadline at or
// before now is clamped to the smallest positive interval so the timer fires
// as soon as possible; the per-timer budget therefore stays positive.
func ArmAt(deadline time.Time, notify func()) *DeadlineTimer {
	budget := deadline.Sub(timing.Now())
	if budget <= 0 {
		budget = 1
	}
	return newTimer(budget, notify)
}

func newTimer(budget time.Duration, notify func()) *DeadlineTimer {
	now := timing.Now()
	t := &DeadlineTimer{
		budget:   budget,
		armedAt:  now,
		deadline: now.Add(budget),
		notify:   notify,
	}
	t.wake = timing.AfterFunc(budget, t.onWake)
	return t
}

// onWake runs when the scheduled wake-up elapses.
func (t *DeadlineTimer) onWake() {
	if !t.state.CompareAndSwap(int32(StateArmed), int32(StateFired)) {
		// lost the race to Cancel
		return
	}

	now := timing.Now()
	t.endAt.Store(&now)

	if t.notify != nil {
		t.notify()
	}
}

// Cancel stops the timer before it fires and releases the scheduled wake-up.
// It reports whether this call performed the cancellation; once the timer is
// fired or cancelled, further calls are no-ops. Cancel is idempotent and safe
// to call from exit paths that may run redundantly.
func (t *DeadlineTimer) Cancel() bool {
	if t == nil {
		return false
	}

	if !t.state.CompareAndSwap(int32(StateArmed), int32(StateCancelled)) {
		return false
	}

	now := timing.Now()
	t.endAt.Store(&now)
	t.wake.Stop()
	return true
}

// State returns the current timer state.
// A nil timer reports [StateCancelled]: no wake-up is pending.
func (t *DeadlineTimer) State() State {
	if t == nil {
		return StateCancelled
	}
	return State(t.state.Load())
}

// Fired returns true if the deadline elapsed before cancellation.
func (t *DeadlineTimer) Fired() bool {
	return t.State() == StateFired
}

// Cancelled returns true if the timer was cancelled before its deadline.
func (t *DeadlineTimer) Cancelled() bool {
	return t.State() == StateCancelled
}

// Budget returns the timer's fixed time budget.
func (t *DeadlineTimer) Budget() time.Duration {
	if t == nil {
		return 0
	}
	return t.budget
}

// ArmedAt returns the timestamp when the timer was armed.
func (t *DeadlineTimer) ArmedAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.armedAt
}

// Deadline returns the absolute point at which the timer fires.
func (t *DeadlineTimer) Deadline() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.deadline
}

// Elapsed returns the time the timer has been running, frozen at the
// terminal transition once the timer fired or was cancelled.
func (t *DeadlineTimer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	if end := t.endAt.Load(); end != nil {
		return end.Sub(t.armedAt)
	}
	return timing.Now().Sub(t.armedAt)
}

// Left returns the time remaining until the deadline.
// Returns 0 once the timer is fired or cancelled.
func (t *DeadlineTimer) Left() time.Duration {
	if t == nil || t.State() != StateArmed {
		return 0
	}
	left := t.deadline.Sub(timing.Now())
	if left < 0 {
		return 0
	}
	return left
}

// LogValue implements [slog.LogValuer].
func (t *DeadlineTimer) LogValue() slog.Value {
	if t == nil {
		return slog.Value{}
	}
	snap := t.Snapshot()
	return slog.GroupValue(
		slog.Any("state", snap.State),
		slog.Any("budget", snap.Budget),
		slog.Any("deadline", snap.Deadline),
	)
}

var jsonNull = []byte("null")

// TimerSnapshot is a point-in-time view of a deadline timer, safe to
// serialize or log. Runtime-only fields such as the notify callback and the
// underlying wake-up are excluded.
type TimerSnapshot struct {
	ArmedAt  time.Time     `json:"armed_at"`
	Budget   time.Duration `json:"budget"`
	Deadline time.Time     `json:"deadline"`
	State    State         `json:"state"`
	EndAt    time.Time     `json:"end_at,omitzero"`
}

// Snapshot returns a point-in-time view of the timer.
func (t *DeadlineTimer) Snapshot() *TimerSnapshot {
	if t == nil {
		return nil
	}

	snap := &TimerSnapshot{
		ArmedAt:  t.armedAt,
		Budget:   t.budget,
		Deadline: t.deadline,
		State:    t.State(),
	}
	if end := t.endAt.Load(); end != nil {
		snap.EndAt = *end
	}
	return snap
}

// MarshalJSON implements json.Marshaler.
func (t *DeadlineTimer) MarshalJSON() ([]byte, error) {
	if t == nil {
		return jsonNull, nil
	}
	return errtrace.Wrap2(json.Marshal(t.Snapshot()))
}
