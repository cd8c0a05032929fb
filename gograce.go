// Package gograce provides cooperative deadline scopes: a way to give a unit
// of work a fixed time budget and observe its expiry without interrupting the
// work itself.
//
// A [Scope] arms a single wake-up when it is entered. Once the deadline
// passes, the scope flips an advisory expiry flag and notifies subscribers.
// Nothing is cancelled and no goroutine is unwound: the code inside the scope
// keeps full control and decides when and how to wind down.
//
//	s, err := gograce.Enter(ctx, 100*time.Millisecond, nil)
//	if err != nil {
//		return err
//	}
//	defer s.Exit()
//
//	for s.Running() {
//		// do the next chunk of work
//	}
//
// Expiry can be consumed three ways: polling with [Scope.Expired] or
// [Scope.Running], blocking on [Scope.Done] or [Scope.Wait], and callbacks
// registered with [Scope.OnExpired]. All of them agree: once the deadline
// fires, every observer sees the scope as expired, and a scope that exits
// before its deadline is never reported as expired.
package gograce

// Version is the current gograce package version
var Version = "0.0.0"
