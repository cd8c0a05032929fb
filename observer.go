package gograce

//go:generate mockgen -source=observer.go -destination=internal/testutil/obsmock/observer.go -package=obsmock

import (
	"context"
	"time"
)

// Observer receives scope lifecycle events.
//
// Implementations must be safe for concurrent use. Hooks are invoked
// synchronously on the goroutine that produced the event, so they should
// return quickly and must not block.
type Observer interface {
	// ScopeEntered is called after the scope armed its deadline.
	ScopeEntered(ctx context.Context, s *Scope)
	// ScopeExpired is called at most once, when the scope deadline fires.
	ScopeExpired(ctx context.Context, s *Scope)
	// ScopeRescheduled is called after the scope deadline moved.
	// prev is the deadline that was replaced.
	ScopeRescheduled(ctx context.Context, s *Scope, prev time.Time)
	// ScopeExited is called once, when the scope is exited.
	// expired reports whether the deadline fired before the exit.
	ScopeExited(ctx context.Context, s *Scope, expired bool)
}

// ObserverFuncs adapts a set of plain functions to the [Observer] interface.
// Nil fields are skipped.
type ObserverFuncs struct {
	Entered     func(ctx context.Context, s *Scope)
	Expired     func(ctx context.Context, s *Scope)
	Rescheduled func(ctx context.Context, s *Scope, prev time.Time)
	Exited      func(ctx context.Context, s *Scope, expired bool)
}

func (o ObserverFuncs) ScopeEntered(ctx context.Context, s *Scope) {
	if o.Entered != nil {
		o.Entered(ctx, s)
	}
}

func (o ObserverFuncs) ScopeExpired(ctx context.Context, s *Scope) {
	if o.Expired != nil {
		o.Expired(ctx, s)
	}
}

func (o ObserverFuncs) ScopeRescheduled(ctx context.Context, s *Scope, prev time.Time) {
	if o.Rescheduled != nil {
		o.Rescheduled(ctx, s, prev)
	}
}

func (o ObserverFuncs) ScopeExited(ctx context.Context, s *Scope, expired bool) {
	if o.Exited != nil {
		o.Exited(ctx, s, expired)
	}
}
