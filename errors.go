package gograce

import "github.com/ghettovoice/gograce/internal/errorutil"

// Common errors.
const (
	ErrInvalidBudget = errorutil.ErrInvalidBudget
)

// Scope errors.
const (
	// ErrScopeExpired is returned when an operation needs a live deadline
	// but the scope's deadline has already fired.
	ErrScopeExpired Error = "scope expired"
	// ErrScopeExited is returned when an operation is attempted on a scope
	// that was already exited.
	ErrScopeExited Error = "scope exited"
)

// Error represents a gograce error.
// See [errorutil.Error].
type Error = errorutil.Error

// NewInvalidBudgetError creates a new error with [ErrInvalidBudget] or
// wraps provided error with [ErrInvalidBudget].
func NewInvalidBudgetError(args ...any) error {
	return errorutil.NewInvalidBudgetError(args...) //errtrace:skip
}
