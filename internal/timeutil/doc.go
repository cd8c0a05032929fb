// Package timeutil provides DeadlineTimer, a one-shot wake-up with atomic
// terminal-state resolution for cooperative deadline scopes.
//
// A DeadlineTimer is armed once with a fixed budget and ends in exactly one
// of two terminal states: fired or cancelled. The race between the wake-up
// and a concurrent Cancel is settled by a single compare-and-swap, so the
// notify callback either runs exactly once or is suppressed by a successful
// cancel, never both. TimerSnapshot exposes deterministic state for logging
// and serialization.
//
// Basic usage:
//
//	// Arm a timer that notifies after 5 seconds.
//	timer, err := timeutil.Arm(5*time.Second, func() {
//	    log.Println("deadline passed")
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Disarm on the happy path; Cancel reports whether it won.
//	if timer.Cancel() {
//	    // the notify callback will never run
//	}
//
// All timer operations are thread-safe and can be called concurrently from
// multiple goroutines.
package timeutil
