package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/warp/flight-engine/flight"
)

// txStore implements flight.Tx on one open transaction. Every statement
// goes through tx: an in-memory database has a single connection, and a
// read on the parent pool would wait for it forever.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (t *txStore) sb() sq.StatementBuilderType { return t.parent.sb }

// exec runs a built statement and returns the affected row count.
func (t *txStore) exec(ctx context.Context, b sq.Sqlizer, what string) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s sql: %w", what, err)
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", what, mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", what, err)
	}
	return n, nil
}

func (t *txStore) InsertCustomer(ctx context.Context, c flight.Customer) error {
	_, err := t.exec(ctx, t.sb().
		Insert("users").
		Columns("username", "password_hash", "balance").
		Values(c.Username, string(c.PasswordHash), c.Balance),
		"insert customer")
	if errors.Is(err, errUniqueViolation) {
		return fmt.Errorf("%w: %s", flight.ErrDuplicateCustomer, c.Username)
	}
	return err
}

func (t *txStore) Flight(ctx context.Context, fid int64) (flight.Flight, error) {
	return t.parent.flight(ctx, t.tx, fid)
}

func (t *txStore) ReservationsOf(ctx context.Context, username string) ([]flight.Reservation, error) {
	return t.parent.reservationsOf(ctx, t.tx, username)
}

func (t *txStore) NextReservationID(ctx context.Context) (int64, error) {
	query, args, err := t.sb().
		Update("reservation_ids").
		Set("last_rid", sq.Expr("last_rid + 1")).
		Where(sq.Eq{"id": 1}).
		Suffix("RETURNING last_rid").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reservation id sql: %w", err)
	}

	var rid int64
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&rid); err != nil {
		return 0, fmt.Errorf("next reservation id: %w", mapErr(err))
	}
	return rid, nil
}

func (t *txStore) EnsureCapacity(ctx context.Context, fid int64) error {
	// The nested select keeps the default "?" format; the outer builder
	// rewrites placeholders for the whole statement.
	seed := sq.
		Select("fid", "capacity").
		From("flights").
		Where(sq.Eq{"fid": fid}).
		Where("NOT EXISTS (SELECT 1 FROM capacity c WHERE c.fid = flights.fid)")

	_, err := t.exec(ctx, t.sb().
		Insert("capacity").
		Columns("fid", "capacity").
		Select(seed),
		"seed capacity")
	return err
}

func (t *txStore) Capacity(ctx context.Context, fid int64) (int, error) {
	query, args, err := t.sb().
		Select("capacity").
		From("capacity").
		Where(sq.Eq{"fid": fid}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build capacity sql: %w", err)
	}

	var seats int
	err = t.tx.QueryRowContext(ctx, query, args...).Scan(&seats)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", flight.ErrFlightNotFound, fid)
	}
	if err != nil {
		return 0, fmt.Errorf("get capacity: %w", mapErr(err))
	}
	return seats, nil
}

func (t *txStore) TakeSeat(ctx context.Context, fid int64) error {
	n, err := t.exec(ctx, t.sb().
		Update("capacity").
		Set("capacity", sq.Expr("capacity - 1")).
		Where(sq.Eq{"fid": fid}).
		Where(sq.Gt{"capacity": 0}),
		"take seat")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", flight.ErrNoCapacity, fid)
	}
	return nil
}

func (t *txStore) ReleaseSeat(ctx context.Context, fid int64) error {
	_, err := t.exec(ctx, t.sb().
		Update("capacity").
		Set("capacity", sq.Expr("capacity + 1")).
		Where(sq.Eq{"fid": fid}).
		Where("capacity < (SELECT f.capacity FROM flights f WHERE f.fid = capacity.fid)"),
		"release seat")
	return err
}

func (t *txStore) InsertReservation(ctx context.Context, r flight.Reservation) error {
	_, err := t.exec(ctx, t.sb().
		Insert("reservations").
		Columns(reservationColumns...).
		Values(r.ID, r.Owner, r.DayOfMonth, r.Leg1FID, r.Leg2FID, r.Price1, r.Price2, r.Paid),
		"insert reservation")
	return err
}

func (t *txStore) DeleteReservation(ctx context.Context, rid int64) error {
	n, err := t.exec(ctx, t.sb().
		Delete("reservations").
		Where(sq.Eq{"rid": rid}),
		"delete reservation")
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", flight.ErrReservationNotFound, rid)
	}
	return nil
}

func (t *txStore) MarkPaid(ctx context.Context, rid int64) error {
	n, err := t.exec(ctx, t.sb().
		Update("reservations").
		Set("paid", true).
		Where(sq.Eq{"rid": rid, "paid": false}),
		"mark paid")
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: %d", flight.ErrNoUnpaidReservation, rid)
	}
	return nil
}

func (t *txStore) Balance(ctx context.Context, username string) (int64, error) {
	query, args, err := t.sb().
		Select("balance").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build balance sql: %w", err)
	}

	var balance int64
	err = t.tx.QueryRowContext(ctx, query, args...).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, flight.ErrCustomerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", mapErr(err))
	}
	return balance, nil
}

func (t *txStore) Debit(ctx context.Context, username string, amount int64) error {
	n, err := t.exec(ctx, t.sb().
		Update("users").
		Set("balance", sq.Expr("balance - ?", amount)).
		Where(sq.Eq{"username": username}).
		Where(sq.GtOrEq{"balance": amount}),
		"debit")
	if err != nil {
		return err
	}
	if n == 0 {
		return flight.ErrInsufficientFunds
	}
	return nil
}

func (t *txStore) Credit(ctx context.Context, username string, amount int64) error {
	n, err := t.exec(ctx, t.sb().
		Update("users").
		Set("balance", sq.Expr("balance + ?", amount)).
		Where(sq.Eq{"username": username}),
		"credit")
	if err != nil {
		return err
	}
	if n == 0 {
		return flight.ErrCustomerNotFound
	}
	return nil
}
