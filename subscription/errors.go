package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition    = errors.New("subscription: invalid status transition")
	ErrPrecondition         = errors.New("subscription: precondition violated")
	ErrInvalidSchedule      = errors.New("subscription: invalid schedule parameters")
	ErrNotPayable           = errors.New("subscription: not accepting payments")
	ErrDropNotFound         = errors.New("subscription: drop not found")
	ErrDropAlreadyPaid      = errors.New("subscription: drop already paid")
	ErrDuplicateTransaction = errors.New("subscription: duplicate transaction reference")
	ErrAmountMismatch       = errors.New("subscription: settlement amount does not match drop")
	ErrScheduleExhausted    = errors.New("subscription: no unpaid drops left")
)

// InvalidTransitionError is returned when a requested status change is not in
// the transition table. The subscription is left unchanged.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("subscription: invalid status transition %s -> %s", e.From, e.To)
}

// Is lets errors.Is match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// PreconditionError reports a record that violates a subscription invariant.
// It signals a caller bug; nothing in this package attempts repair.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("subscription: precondition violated on %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func violation(field, format string, args ...any) error {
	return &PreconditionError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
