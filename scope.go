package gograce

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/ghettovoice/gograce/internal/timeutil"
	"github.com/ghettovoice/gograce/internal/types"
	"github.com/ghettovoice/gograce/log"
	"github.com/ghettovoice/gograce/timing"
)

// ScopeState represents the lifecycle state of a [Scope].
type ScopeState string

const (
	// ScopeStateCreated is the state of a scope that was allocated but not entered yet.
	ScopeStateCreated ScopeState = "created"
	// ScopeStateActive is the state of an entered scope whose deadline hasn't fired yet.
	ScopeStateActive ScopeState = "active"
	// ScopeStateExpired is the state of an entered scope whose deadline has fired.
	// Expiry is advisory, the scope remains usable until the exit.
	ScopeStateExpired ScopeState = "expired"
	// ScopeStateExited is the terminal state of a scope.
	ScopeStateExited ScopeState = "exited"
)

const (
	scopeEvtEnter    = "enter"
	scopeEvtDeadline = "deadline"
	scopeEvtExit     = "exit"
)

// ExpiryHandler is a callback invoked when a scope deadline fires.
type ExpiryHandler func(ctx context.Context, s *Scope)

// ScopeOptions customizes a scope created by [Enter], [EnterAt] or [Within].
type ScopeOptions struct {
	// Observer receives the scope lifecycle events. Optional.
	Observer Observer
	// Log is the logger used by the scope.
	// Defaults to [log.Default].
	Log *slog.Logger
}

func (o *ScopeOptions) observer() Observer {
	if o == nil {
		return nil
	}
	return o.Observer
}

func (o *ScopeOptions) logger() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Scope is a cooperative deadline scope.
//
// A scope is entered with a positive time budget that fixes the deadline at
// enter time. When the deadline passes the scope becomes expired. Expiry is
// a non-interrupting signal: the work inside the scope keeps running and
// consumes it whenever convenient, by polling [Scope.Expired] or
// [Scope.Running], blocking on [Scope.Done] or [Scope.Wait], or registering
// an [ExpiryHandler] with [Scope.OnExpired].
//
// Every scope must be left with [Scope.Exit], usually deferred right after
// the enter. Exit disarms the pending wake-up, so a scope that finishes
// ahead of its deadline leaves nothing behind.
//
// All methods are safe for concurrent use. Methods on a nil scope report
// zero values and do nothing.
type Scope struct {
	ctx context.Context
	log *slog.Logger
	obs Observer

	mu    sync.Mutex
	fsm   *stateless.StateMachine
	timer *timeutil.DeadlineTimer

	budget    time.Duration
	enteredAt time.Time
	exitedAt  time.Time

	expired  atomic.Bool
	observed atomic.Bool
	done     chan struct{}

	onExpired types.CallbackManager[ExpiryHandler]
}

// Enter creates a scope with the given time budget and arms its deadline.
//
// The budget must be positive, otherwise Enter fails with [ErrInvalidBudget]
// and no scope is created. The deadline is fixed at now+budget before Enter
// returns.
//
// ctx is retained by the scope: it is passed to expiry handlers and observer
// hooks. Its cancellation does not exit the scope. A nil ctx defaults to
// [context.Background].
func Enter(ctx context.Context, budget time.Duration, opts *ScopeOptions) (*Scope, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s := newScope(ctx, opts)

	s.mu.Lock()
	t, err := timeutil.Arm(budget, s.onDeadline)
	if err != nil {
		s.mu.Unlock()
		return nil, errtrace.Wrap(err)
	}
	s.enterLocked(t)
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.ScopeEntered(ctx, s)
	}
	return s, nil
}

// EnterAt creates a scope whose deadline is fixed at the given instant.
// A deadline in the past arms a scope that expires almost immediately,
// EnterAt never fails.
//
// See [Enter] for the ctx semantics.
func EnterAt(ctx context.Context, deadline time.Time, opts *ScopeOptions) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	s := newScope(ctx, opts)

	s.mu.Lock()
	s.enterLocked(timeutil.ArmAt(deadline, s.onDeadline))
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.ScopeEntered(ctx, s)
	}
	return s
}

// Within runs fn inside a freshly entered scope and guarantees the exit on
// all return paths, including a panic in fn.
//
// The error returned by fn passes through untouched. Within itself fails
// only with [ErrInvalidBudget].
func Within(ctx context.Context, budget time.Duration, fn func(ctx context.Context, s *Scope) error, opts *ScopeOptions) error {
	s, err := Enter(ctx, budget, opts)
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer s.Exit()

	return fn(ctx, s) //errtrace:skip
}

func newScope(ctx context.Context, opts *ScopeOptions) *Scope {
	s := &Scope{
		ctx:  ctx,
		log:  opts.logger(),
		obs:  opts.observer(),
		done: make(chan struct{}),
	}
	s.initFSM()
	return s
}

func (s *Scope) initFSM() {
	s.fsm = stateless.NewStateMachine(ScopeStateCreated)

	s.fsm.Configure(ScopeStateCreated).
		Permit(scopeEvtEnter, ScopeStateActive)
	s.fsm.Configure(ScopeStateActive).
		OnEntryFrom(scopeEvtEnter, s.actEntered).
		Permit(scopeEvtDeadline, ScopeStateExpired).
		Permit(scopeEvtExit, ScopeStateExited)
	s.fsm.Configure(ScopeStateExpired).
		SubstateOf(ScopeStateActive).
		OnEntry(s.actExpired)
	s.fsm.Configure(ScopeStateExited).
		OnEntry(s.actExited)
}

func (s *Scope) enterLocked(t *timeutil.DeadlineTimer) {
	s.timer = t
	s.budget = t.Budget()
	s.enteredAt = t.ArmedAt()
	s.fire(scopeEvtEnter)
}

// fire drives the scope FSM. The caller must hold mu. A transition that is
// not permitted in the current state is a programming error.
//
// The scope context is detached here: its cancellation must not interfere
// with the scope's own transitions.
func (s *Scope) fire(evt string) {
	if err := s.fsm.FireCtx(context.WithoutCancel(s.ctx), evt); err != nil {
		panic(fmt.Errorf("fire %q in state %q: %w", evt, s.stateLocked(), err))
	}
}

func (s *Scope) stateLocked() ScopeState {
	st, _ := s.fsm.MustState().(ScopeState)
	return st
}

// onDeadline is bound to the scope timer and runs on the wake-up goroutine.
func (s *Scope) onDeadline() {
	s.mu.Lock()
	handlers, ok := s.expireLocked()
	s.mu.Unlock()

	if ok {
		s.dispatchExpired(handlers)
	}
}

// expireLocked turns the scope expired: flips the advisory flag, releases
// the waiters and fires the deadline transition. The caller must hold mu.
// ok reports whether this call won the expiry; the returned handlers must
// be invoked after unlocking.
func (s *Scope) expireLocked() (handlers []ExpiryHandler, ok bool) {
	if s.expired.Load() {
		return nil, false
	}
	s.expired.Store(true)
	close(s.done)
	s.fire(scopeEvtDeadline)
	return s.onExpired.Drain(), true
}

func (s *Scope) dispatchExpired(handlers []ExpiryHandler) {
	if s.obs != nil {
		s.obs.ScopeExpired(s.ctx, s)
	}
	for _, fn := range handlers {
		fn(s.ctx, s)
	}
}

// Exit leaves the scope: the pending wake-up is disarmed and the scope
// turns [ScopeStateExited]. Exit never fails and never blocks, repeated
// calls are no-ops.
//
// Exit resolves the race with a concurrent deadline firing atomically,
// exactly one of the two wins: after Exit returns the scope reports expired
// if and only if the deadline actually fired. A firing that lost the race
// delivers nothing.
func (s *Scope) Exit() {
	if s == nil {
		return
	}

	s.mu.Lock()
	if s.stateLocked() == ScopeStateExited {
		s.mu.Unlock()
		return
	}

	var handlers []ExpiryHandler
	var expiredNow bool
	if !s.timer.Cancel() {
		// The wake-up won the race, deliver the expiry before exiting.
		handlers, expiredNow = s.expireLocked()
	}
	s.fire(scopeEvtExit)
	s.exitedAt = timing.Now()
	expired := s.expired.Load()
	s.mu.Unlock()

	if expiredNow {
		s.dispatchExpired(handlers)
	}
	if s.obs != nil {
		s.obs.ScopeExited(s.ctx, s, expired)
	}
	if !s.observed.Load() {
		s.log.LogAttrs(s.ctx, slog.LevelDebug, "scope expiry never checked", slog.Any("scope", s))
	}
}

// RescheduleAt moves the scope deadline to the given instant, arming a
// fresh wake-up in place of the pending one. The budget reported by
// [Scope.Budget] keeps its enter-time value.
//
// Rescheduling is legal only while the scope is strictly active: it fails
// with [ErrScopeExpired] after the deadline fired and with [ErrScopeExited]
// after the exit. When the pending wake-up wins the race against the
// reschedule, the expiry is delivered and [ErrScopeExpired] is returned.
func (s *Scope) RescheduleAt(deadline time.Time) error {
	if s == nil {
		return errtrace.Wrap(ErrScopeExited)
	}
	return errtrace.Wrap(s.reschedule(func(time.Time) time.Time { return deadline }))
}

// Extend moves the scope deadline by delta relative to the current
// deadline. A negative delta shortens what is left. See [Scope.RescheduleAt]
// for the legality rules.
func (s *Scope) Extend(delta time.Duration) error {
	if s == nil {
		return errtrace.Wrap(ErrScopeExited)
	}
	return errtrace.Wrap(s.reschedule(func(cur time.Time) time.Time { return cur.Add(delta) }))
}

func (s *Scope) reschedule(resolve func(cur time.Time) time.Time) error {
	s.mu.Lock()
	switch s.stateLocked() {
	case ScopeStateExpired:
		s.mu.Unlock()
		return errtrace.Wrap(ErrScopeExpired)
	case ScopeStateExited:
		s.mu.Unlock()
		return errtrace.Wrap(ErrScopeExited)
	}

	if !s.timer.Cancel() {
		// Lost the race to the wake-up.
		handlers, ok := s.expireLocked()
		s.mu.Unlock()
		if ok {
			s.dispatchExpired(handlers)
		}
		return errtrace.Wrap(ErrScopeExpired)
	}

	prev := s.timer.Deadline()
	s.timer = timeutil.ArmAt(resolve(prev), s.onDeadline)
	s.log.LogAttrs(s.ctx, slog.LevelDebug, "scope rescheduled",
		slog.Any("scope", log.CalcValue(func() any { return s.snapshotLocked() })),
		slog.Any("prev_deadline", prev))
	s.mu.Unlock()

	if s.obs != nil {
		s.obs.ScopeRescheduled(s.ctx, s, prev)
	}
	return nil
}

// Expired reports whether the scope deadline has fired.
// It never blocks and is safe to call at any rate.
func (s *Scope) Expired() bool {
	if s == nil {
		return false
	}
	s.observed.Store(true)
	return s.expired.Load()
}

// Running reports whether the scope is strictly active: entered, not
// expired and not exited. It yields the processor before checking, which
// makes it a convenient heartbeat condition for tight worker loops.
func (s *Scope) Running() bool {
	if s == nil {
		return false
	}
	runtime.Gosched()
	s.observed.Store(true)
	return s.State() == ScopeStateActive
}

// Done returns a channel that is closed when the scope deadline fires.
// The channel is never closed if the scope exits ahead of the deadline.
// A nil scope returns a nil channel.
func (s *Scope) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	s.observed.Store(true)
	return s.done
}

// Wait blocks until the scope deadline fires or ctx is done. It returns
// nil immediately if the deadline has already fired, and the ctx error if
// ctx won.
func (s *Scope) Wait(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.observed.Store(true)
	if s.expired.Load() {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errtrace.Wrap(ctx.Err())
	}
}

// OnExpired registers a callback invoked once when the scope deadline
// fires. The callback receives the scope context, see [Scope.Context].
// If the deadline has already fired, fn runs synchronously before
// OnExpired returns.
//
// The returned cancel removes the registration. A scope that exits ahead
// of its deadline never invokes fn.
func (s *Scope) OnExpired(fn ExpiryHandler) (cancel func()) {
	if s == nil || fn == nil {
		return func() {}
	}
	s.observed.Store(true)

	s.mu.Lock()
	if s.expired.Load() {
		s.mu.Unlock()
		fn(s.ctx, s)
		return func() {}
	}
	cancel = s.onExpired.Add(fn)
	s.mu.Unlock()
	return cancel
}

// Context returns the context the scope was entered with.
func (s *Scope) Context() context.Context {
	if s == nil {
		return context.Background()
	}
	return s.ctx
}

// State returns the current lifecycle state of the scope.
func (s *Scope) State() ScopeState {
	if s == nil {
		return ScopeStateExited
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Budget returns the time budget the scope was entered with.
// Rescheduling does not change it.
func (s *Scope) Budget() time.Duration {
	if s == nil {
		return 0
	}
	return s.budget
}

// Deadline returns the instant the scope expires at.
func (s *Scope) Deadline() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.Deadline()
}

// Remaining returns the time left until the deadline, 0 once the deadline
// fired or the scope exited.
func (s *Scope) Remaining() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer.Left()
}

// Elapsed returns the time the scope has been entered, frozen at the exit.
func (s *Scope) Elapsed() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Scope) elapsedLocked() time.Duration {
	if !s.exitedAt.IsZero() {
		return s.exitedAt.Sub(s.enteredAt)
	}
	return timing.Now().Sub(s.enteredAt)
}

func (s *Scope) actEntered(ctx context.Context, _ ...any) error {
	s.log.LogAttrs(ctx, slog.LevelDebug, "scope entered",
		slog.Any("scope", log.CalcValue(func() any { return s.snapshotLocked() })))
	return nil
}

func (s *Scope) actExpired(ctx context.Context, _ ...any) error {
	s.log.LogAttrs(ctx, slog.LevelDebug, "scope expired",
		slog.Any("scope", log.CalcValue(func() any { return s.snapshotLocked() })))
	return nil
}

func (s *Scope) actExited(ctx context.Context, _ ...any) error {
	s.log.LogAttrs(ctx, slog.LevelDebug, "scope exited",
		slog.Any("scope", log.CalcValue(func() any { return s.snapshotLocked() })))
	return nil
}

// LogValue implements [slog.LogValuer].
func (s *Scope) LogValue() slog.Value {
	if s == nil {
		return slog.Value{}
	}
	snap := s.Snapshot()
	return slog.GroupValue(
		slog.Any("state", log.StringValue(snap.State)),
		slog.Any("budget", snap.Budget),
		slog.Any("deadline", snap.Deadline),
		slog.Any("expired", snap.Expired),
	)
}

// ScopeSnapshot represents a point-in-time view of a scope.
type ScopeSnapshot struct {
	// Time is the snapshot timestamp.
	Time time.Time `json:"time"`
	// State is the current scope state.
	State ScopeState `json:"state"`
	// Budget is the time budget the scope was entered with.
	Budget time.Duration `json:"budget"`
	// EnteredAt is the instant the scope was entered at.
	EnteredAt time.Time `json:"entered_at"`
	// Deadline is the instant the scope expires at.
	Deadline time.Time `json:"deadline"`
	// Expired reports whether the deadline has fired.
	Expired bool `json:"expired"`
	// Handlers is the number of expiry handlers still registered.
	Handlers int `json:"handlers"`
	// ExitedAt is the instant the scope was exited at, zero until then.
	ExitedAt time.Time `json:"exited_at,omitzero"`
}

// Snapshot returns a point-in-time view of the scope.
func (s *Scope) Snapshot() *ScopeSnapshot {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Scope) snapshotLocked() *ScopeSnapshot {
	return &ScopeSnapshot{
		Time:      timing.Now(),
		State:     s.stateLocked(),
		Budget:    s.budget,
		EnteredAt: s.enteredAt,
		Deadline:  s.timer.Deadline(),
		Expired:   s.expired.Load(),
		Handlers:  s.onExpired.Len(),
		ExitedAt:  s.exitedAt,
	}
}

// MarshalJSON implements [json.Marshaler].
func (s *Scope) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return errtrace.Wrap2(json.Marshal(s.Snapshot()))
}
