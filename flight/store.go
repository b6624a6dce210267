/*
store.go - Persistence interfaces for the reservation engine

PURPOSE:
  Defines the boundary between the engine and the relational store.
  Methods are domain level (no SQL leaks into the engine); the store
  adapter decides how to express them.

KEY INTERFACES:
  Store:   Reads outside a transaction (login, search, listing)
  Tx:      Reads and writes inside one serializable transaction
  TxStore: Store plus WithTx

TRANSACTION CONTRACT:
  WithTx runs fn inside one transaction at serializable isolation.
  - fn returns nil: commit
  - fn returns error: rollback, error returned unchanged
  - the store cannot serialize: error wraps ErrSerialization
  Nothing written inside fn is visible to other sessions before commit.

GUARDED WRITES:
  TakeSeat, ReleaseSeat, Debit and MarkPaid carry their own guard
  (capacity > 0, capacity < base, balance >= amount, paid = false) so the
  invariants hold even if a caller skips the read-then-check step.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite and PostgreSQL
  - flight/store: In-memory for testing

SEE ALSO:
  - engine.go: Uses these interfaces
*/
package flight

import "context"

// =============================================================================
// STORE - Reads outside a transaction
// =============================================================================

type Store interface {
	// Customer returns ErrCustomerNotFound for unknown usernames.
	Customer(ctx context.Context, username string) (Customer, error)

	// DirectFlights returns non-canceled flights origin->dest on day,
	// ordered by duration then fid, at most limit rows.
	DirectFlights(ctx context.Context, origin, dest string, day, limit int) ([]Flight, error)

	// OneStopFlights returns non-canceled same-day pairs where the first
	// leg's destination is the second leg's origin, ordered by summed
	// duration then leg fids, at most limit pairs.
	OneStopFlights(ctx context.Context, origin, dest string, day, limit int) ([][2]Flight, error)

	// Flight returns ErrFlightNotFound for unknown fids.
	Flight(ctx context.Context, fid int64) (Flight, error)

	// ReservationsOf returns the owner's reservations ordered by id.
	ReservationsOf(ctx context.Context, username string) ([]Reservation, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Tx) error) error
}

// =============================================================================
// TX - Operations inside one serializable transaction
// =============================================================================

type Tx interface {
	// InsertCustomer returns ErrDuplicateCustomer if the username is taken.
	InsertCustomer(ctx context.Context, c Customer) error

	Flight(ctx context.Context, fid int64) (Flight, error)
	ReservationsOf(ctx context.Context, username string) ([]Reservation, error)

	// NextReservationID advances the high-water mark and returns it.
	// Ids are never handed out twice, even after the row is deleted.
	NextReservationID(ctx context.Context) (int64, error)

	// EnsureCapacity seeds the remaining-seats row from the flight's base
	// capacity if it does not exist yet.
	EnsureCapacity(ctx context.Context, fid int64) error

	// Capacity returns the remaining seats of a seeded flight.
	Capacity(ctx context.Context, fid int64) (int, error)

	// TakeSeat decrements remaining seats, ErrNoCapacity if none are left.
	TakeSeat(ctx context.Context, fid int64) error

	// ReleaseSeat increments remaining seats, never above base capacity.
	ReleaseSeat(ctx context.Context, fid int64) error

	InsertReservation(ctx context.Context, r Reservation) error

	// DeleteReservation returns ErrReservationNotFound if no row matched.
	DeleteReservation(ctx context.Context, rid int64) error

	// MarkPaid returns ErrNoUnpaidReservation unless exactly one unpaid
	// row was updated.
	MarkPaid(ctx context.Context, rid int64) error

	Balance(ctx context.Context, username string) (int64, error)

	// Debit returns ErrInsufficientFunds if the balance is below amount.
	Debit(ctx context.Context, username string, amount int64) error
	Credit(ctx context.Context, username string, amount int64) error
}
