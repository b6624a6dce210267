/*
errors.go - Error taxonomy for engine operations

PURPOSE:
  Every failed operation returns an *OpError carrying the operation, a
  Kind that a presentation layer can switch on, and the underlying cause.
  Causes are the sentinels below (use errors.Is) or structured errors
  that unwrap to them.

ERROR KINDS:
  KindAuth:              not logged in, already logged in, bad credentials
  KindValidation:        bad create-customer input, unknown itinerary
  KindConflict:          same-day booking, no seat left, canceled flight
  KindInsufficientFunds: balance below cost
  KindNotFound:          reservation not found or not owned
  KindStore:             transaction, serialization or connectivity failure

STORE ERRORS:
  Store implementations return ErrCustomerNotFound, ErrDuplicateCustomer,
  ErrFlightNotFound, ErrReservationNotFound, ErrNoCapacity and
  ErrSerialization so the engine does not depend on driver error types.

SEE ALSO:
  - engine.go: Builds OpError values
  - console/render.go: Turns them into text
*/
package flight

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrLoginFailed     = errors.New("login failed")

	// ErrInvalidCustomer is returned for negative balances or identifiers
	// that are empty or too long.
	ErrInvalidCustomer = errors.New("invalid customer")

	// ErrNoSuchItinerary is returned when an ordinal is not in the
	// session's current search results.
	ErrNoSuchItinerary = errors.New("no such itinerary")

	ErrSameDayConflict = errors.New("same-day booking conflict")

	// ErrNoUnpaidReservation covers both "not found" and "already paid";
	// pay does not tell the two apart.
	ErrNoUnpaidReservation = errors.New("no unpaid reservation found")

	ErrInsufficientFunds = errors.New("insufficient funds")

	// Store-level errors.
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrDuplicateCustomer   = errors.New("customer already exists")
	ErrFlightNotFound      = errors.New("flight not found")
	ErrFlightCanceled      = errors.New("flight canceled")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrNoCapacity          = errors.New("no remaining capacity")

	// ErrSerialization is returned when the store could not serialize a
	// transaction against concurrent peers. The whole operation may be retried.
	ErrSerialization = errors.New("serialization failure")
)

// =============================================================================
// KINDS AND OPERATIONS
// =============================================================================

type Kind string

const (
	KindAuth              Kind = "auth"
	KindValidation        Kind = "validation"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindNotFound          Kind = "not_found"
	KindStore             Kind = "store"
)

type Op string

const (
	OpLogin          Op = "login"
	OpCreateCustomer Op = "create_customer"
	OpSearch         Op = "search"
	OpBook           Op = "book"
	OpReservations   Op = "reservations"
	OpPay            Op = "pay"
	OpCancel         Op = "cancel"
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OpError is the error returned by every engine operation.
type OpError struct {
	Op   Op
	Kind Kind
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// InsufficientFundsError reports the balance and cost of a failed payment.
type InsufficientFundsError struct {
	ReservationID int64
	Balance       int64
	Cost          int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, cost %d", e.Balance, e.Cost)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// KindOf returns the Kind of an engine error, or "" for nil and foreign errors.
func KindOf(err error) Kind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ""
}

// IsRetryable reports whether repeating the whole operation might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSerialization)
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrNotLoggedIn),
		errors.Is(err, ErrAlreadyLoggedIn),
		errors.Is(err, ErrLoginFailed):
		return KindAuth
	case errors.Is(err, ErrInvalidCustomer),
		errors.Is(err, ErrDuplicateCustomer),
		errors.Is(err, ErrNoSuchItinerary):
		return KindValidation
	case errors.Is(err, ErrSameDayConflict),
		errors.Is(err, ErrNoCapacity),
		errors.Is(err, ErrFlightCanceled):
		return KindConflict
	case errors.Is(err, ErrInsufficientFunds):
		return KindInsufficientFunds
	case errors.Is(err, ErrNoUnpaidReservation),
		errors.Is(err, ErrReservationNotFound):
		return KindNotFound
	default:
		return KindStore
	}
}
