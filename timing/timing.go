// Package timing provides a shim around the standard time package that can be
// switched into a mocked mode for tests: the virtual clock is advanced manually
// with [Elapse] and timers fire deterministically instead of in real time.
//
// In the default mode every function delegates to the time package.
package timing

import (
	"sync"
	"time"
)

// MockMode enables the mocked clock. It must be set before any timers are
// created and is intended for tests only.
var MockMode = false

var (
	mockMu          sync.Mutex
	currentTimeMock = time.Unix(0, 0)
	mockTimers      []*mockTimer
)

// Timer is a one-shot timer, a subset of [time.Timer] behind an interface so
// that mock timers can stand in for real ones.
type Timer interface {
	// C returns the channel on which the fire time is delivered.
	// Timers created with [AfterFunc] have no channel, same as in the time package.
	C() <-chan time.Time
	// Stop prevents the timer from firing.
	// It reports whether the timer was still pending.
	Stop() bool
	// Reset reschedules the timer to fire after duration d from now.
	// It reports whether the timer was still pending.
	Reset(d time.Duration) bool
}

type realTimer struct {
	*time.Timer
}

func (t *realTimer) C() <-chan time.Time { return t.Timer.C }

type mockTimer struct {
	endTime time.Time
	fired   bool
	ch      chan time.Time
	toRun   func()
}

func (t *mockTimer) C() <-chan time.Time { return t.ch }

func (t *mockTimer) Stop() bool {
	mockMu.Lock()
	defer mockMu.Unlock()
	pending := !t.fired
	t.fired = true
	return pending
}

func (t *mockTimer) Reset(d time.Duration) bool {
	mockMu.Lock()
	defer mockMu.Unlock()
	pending := !t.fired
	t.fired = false
	t.endTime = currentTimeMock.Add(d)
	return pending
}

// fire delivers the timer event. Called with mockMu held.
func (t *mockTimer) fire(now time.Time) {
	t.fired = true
	if t.toRun != nil {
		go t.toRun()
		return
	}
	select {
	case t.ch <- now:
	default:
	}
}

// NewTimer creates a timer that fires after duration d.
func NewTimer(d time.Duration) Timer {
	if !MockMode {
		return &realTimer{time.NewTimer(d)}
	}

	mockMu.Lock()
	defer mockMu.Unlock()
	t := &mockTimer{
		endTime: currentTimeMock.Add(d),
		ch:      make(chan time.Time, 1),
	}
	mockTimers = append(mockTimers, t)
	return t
}

// AfterFunc creates a timer that calls f in its own goroutine after duration d.
func AfterFunc(d time.Duration, f func()) Timer {
	if !MockMode {
		return &realTimer{time.AfterFunc(d, f)}
	}

	mockMu.Lock()
	defer mockMu.Unlock()
	t := &mockTimer{
		endTime: currentTimeMock.Add(d),
		toRun:   f,
	}
	mockTimers = append(mockTimers, t)
	return t
}

// After returns a channel that delivers the current time after duration d.
func After(d time.Duration) <-chan time.Time {
	return NewTimer(d).C()
}

// Sleep blocks for duration d.
func Sleep(d time.Duration) {
	if !MockMode {
		time.Sleep(d)
		return
	}
	<-After(d)
}

// Now returns the current time of the active clock.
func Now() time.Time {
	if !MockMode {
		return time.Now()
	}

	mockMu.Lock()
	defer mockMu.Unlock()
	return currentTimeMock
}

// Elapse advances the mocked clock by duration d and fires every timer whose
// end time has come up. Timers stay registered after firing so that a later
// Reset rearms them in place.
func Elapse(d time.Duration) {
	if !MockMode {
		panic("timing: Elapse called outside of mock mode")
	}

	mockMu.Lock()
	defer mockMu.Unlock()
	currentTimeMock = currentTimeMock.Add(d)
	for _, t := range mockTimers {
		if !t.fired && !currentTimeMock.Before(t.endTime) {
			t.fire(currentTimeMock)
		}
	}
}
