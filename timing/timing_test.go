package timing_test

// The virtual clock is process-global, so none of these tests run in parallel.

import (
	"testing"
	"time"

	"github.com/ghettovoice/gograce/timing"
)

// waitFire fails the test unless ch delivers within a real-time grace window.
func waitFire[T any](tb testing.TB, ch <-chan T) {
	tb.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		tb.Fatal("timer did not fire on the virtual clock")
	}
}

// stayQuiet fails the test if ch delivers within a short real-time window.
func stayQuiet[T any](tb testing.TB, ch <-chan T) {
	tb.Helper()
	select {
	case <-ch:
		tb.Fatal("timer fired ahead of the virtual clock")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewTimer(t *testing.T) {
	timing.MockMode = true

	timer := timing.NewTimer(5 * time.Second)

	timing.Elapse(4 * time.Second)
	stayQuiet(t, timer.C())

	timing.Elapse(time.Second)
	waitFire(t, timer.C())
}

func TestNewTimerReal(t *testing.T) {
	timing.MockMode = false

	timer := timing.NewTimer(5 * time.Millisecond)
	waitFire(t, timer.C())
}

func TestTimerOrdering(t *testing.T) {
	timing.MockMode = true

	long := timing.NewTimer(5 * time.Second)
	short := timing.NewTimer(5 * time.Millisecond)

	timing.Elapse(5 * time.Millisecond)
	waitFire(t, short.C())
	stayQuiet(t, long.C())

	timing.Elapse(4995 * time.Millisecond)
	waitFire(t, long.C())
}

func TestTimer_Stop(t *testing.T) {
	timing.MockMode = true

	timer := timing.NewTimer(5 * time.Second)

	if !timer.Stop() {
		t.Fatal("Stop on a pending timer reported it as expired")
	}
	if timer.Stop() {
		t.Fatal("second Stop reported the timer as pending")
	}

	timing.Elapse(5 * time.Second)
	stayQuiet(t, timer.C())
}

func TestTimer_Reset(t *testing.T) {
	timing.MockMode = true

	timer := timing.NewTimer(5 * time.Second)

	timing.Elapse(4 * time.Second)
	if !timer.Reset(5 * time.Second) {
		t.Fatal("Reset on a pending timer reported it as expired")
	}

	// The original deadline is gone.
	timing.Elapse(time.Second)
	stayQuiet(t, timer.C())

	timing.Elapse(4 * time.Second)
	waitFire(t, timer.C())
}

func TestTimer_ResetExpired(t *testing.T) {
	timing.MockMode = true

	timer := timing.NewTimer(5 * time.Second)
	timing.Elapse(5 * time.Second)
	waitFire(t, timer.C())

	if timer.Reset(3 * time.Second) {
		t.Fatal("Reset on a fired timer reported it as pending")
	}

	timing.Elapse(2 * time.Second)
	stayQuiet(t, timer.C())

	timing.Elapse(time.Second)
	waitFire(t, timer.C())
}

// Resetting one timer must not drop the other registered timers.
func TestTimer_ResetKeepsSiblings(t *testing.T) {
	timing.MockMode = true

	first := timing.NewTimer(1 * time.Second)
	second := timing.NewTimer(2 * time.Second)
	third := timing.NewTimer(3 * time.Second)

	first.Reset(4 * time.Second)

	timing.Elapse(2 * time.Second)
	waitFire(t, second.C())

	timing.Elapse(time.Second)
	waitFire(t, third.C())

	timing.Elapse(time.Second)
	waitFire(t, first.C())
}

func TestAfter(t *testing.T) {
	timing.MockMode = true

	ch := timing.After(time.Minute)
	timing.Elapse(time.Minute)
	waitFire(t, ch)
}

func TestAfterFunc(t *testing.T) {
	timing.MockMode = true

	done := make(chan struct{})
	timing.AfterFunc(time.Minute, func() { close(done) })

	timing.Elapse(time.Minute)
	waitFire(t, done)
}

func TestAfterFunc_Reset(t *testing.T) {
	timing.MockMode = true

	fired := make(chan struct{}, 1)
	timer := timing.AfterFunc(5*time.Second, func() { fired <- struct{}{} })

	timing.Elapse(3 * time.Second)
	timer.Reset(5 * time.Second)

	// The original deadline is gone.
	timing.Elapse(2 * time.Second)
	stayQuiet(t, fired)

	timing.Elapse(3 * time.Second)
	waitFire(t, fired)
}

func TestAfterFunc_ResetExpired(t *testing.T) {
	timing.MockMode = true

	fired := make(chan struct{}, 2)
	timer := timing.AfterFunc(5*time.Second, func() { fired <- struct{}{} })

	timing.Elapse(5 * time.Second)
	waitFire(t, fired)

	timer.Reset(5 * time.Second)
	timing.Elapse(5 * time.Second)
	waitFire(t, fired)
}

func TestNow(t *testing.T) {
	timing.MockMode = true

	before := timing.Now()
	timing.Elapse(90 * time.Second)
	if got, want := timing.Now().Sub(before), 90*time.Second; got != want {
		t.Fatalf("mock clock advanced by %v, want %v", got, want)
	}
}

func TestSleepReal(t *testing.T) {
	timing.MockMode = false

	start := time.Now()
	timing.Sleep(10 * time.Millisecond)
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("Sleep returned after %v, want at least %v", elapsed, 10*time.Millisecond)
	}
}

func TestElapseReal(t *testing.T) {
	timing.MockMode = false

	defer func() {
		if recover() == nil {
			t.Fatal("Elapse outside of mock mode did not panic")
		}
	}()
	timing.Elapse(time.Second)
}
