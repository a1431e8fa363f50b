package drops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrAlreadyExists = errors.New("drops: already exists")
	ErrInvalidInput  = errors.New("drops: invalid input")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("drops: subscription not found")
	ErrSubscriptionExists   = errors.New("drops: subscription already exists for order")

	// Wallet errors
	ErrWalletNotFound = errors.New("drops: wallet not found")
	ErrWalletExists   = errors.New("drops: wallet already exists for owner and currency")

	// Store errors
	ErrConcurrentUpdate = errors.New("drops: concurrent update, record version changed")
	ErrStoreClosed      = errors.New("drops: store is closed")
	ErrMigrationFailed  = errors.New("drops: migration failed")
	ErrLockTimeout      = errors.New("drops: timed out waiting for record lock")

	// ErrJournalAppend reports a wallet mutation that was persisted but whose
	// journal entry could not be written. The balance change stands; do not
	// retry the mutation.
	ErrJournalAppend = errors.New("drops: wallet journal append failed")
)

// Domain errors re-exported so callers can match without importing the
// domain packages.
var (
	ErrInvalidTransition    = subscription.ErrInvalidTransition
	ErrPrecondition         = subscription.ErrPrecondition
	ErrInvalidSchedule      = subscription.ErrInvalidSchedule
	ErrNotPayable           = subscription.ErrNotPayable
	ErrDropNotFound         = subscription.ErrDropNotFound
	ErrDropAlreadyPaid      = subscription.ErrDropAlreadyPaid
	ErrDuplicateTransaction = subscription.ErrDuplicateTransaction
	ErrAmountMismatch       = subscription.ErrAmountMismatch
	ErrScheduleExhausted    = subscription.ErrScheduleExhausted

	ErrInsufficientFunds  = wallet.ErrInsufficientFunds
	ErrInsufficientLocked = wallet.ErrInsufficientLocked
	ErrWalletFrozen       = wallet.ErrWalletFrozen
	ErrInvalidAmount      = wallet.ErrInvalidAmount
	ErrCurrencyMismatch   = wallet.ErrCurrencyMismatch
)

// InvalidTransitionError is re-exported from the subscription package.
type InvalidTransitionError = subscription.InvalidTransitionError

// PreconditionError is re-exported from the subscription package.
type PreconditionError = subscription.PreconditionError

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("drops: validation failed for %s: %s", e.Field, e.Message)
}

// Is lets errors.Is match ErrInvalidInput.
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "drops: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("drops: %d errors occurred: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors and nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrDropNotFound)
}

// IsConflict returns true if the error reports a uniqueness or version clash.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrSubscriptionExists) ||
		errors.Is(err, ErrWalletExists) ||
		errors.Is(err, ErrConcurrentUpdate) ||
		errors.Is(err, ErrDuplicateTransaction)
}

// IsInvalidTransition returns true if the error is a rejected status change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate) ||
		errors.Is(err, ErrLockTimeout)
}
