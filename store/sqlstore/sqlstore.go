/*
Package sqlstore provides the SQL-backed implementation of flight.TxStore.

PURPOSE:
  Implements the reservation store on database/sql. Two drivers are
  supported with the same statements, built with squirrel:
  - sqlite3 (github.com/mattn/go-sqlite3), placeholders "?"
  - pgx     (github.com/jackc/pgx/v5/stdlib), placeholders "$n"

KEY TABLES:
  users:           username, bcrypt hash, balance (CHECK balance >= 0)
  flights:         read-only flight dataset
  capacity:        remaining seats, seeded lazily from flights.capacity
  reservations:    one row per live reservation
  reservation_ids: single-row id high-water mark

ISOLATION:
  PostgreSQL transactions run at SERIALIZABLE. SQLite transactions are
  serializable by nature; the DSN asks for BEGIN IMMEDIATE so writers take
  the database lock up front and wait (busy timeout) instead of failing
  mid-transaction. In-memory SQLite databases use a single connection,
  which also keeps every caller on the same database.

MIGRATION:
  Schema is migrated on Open() from the embedded migrations/ directory
  with golang-migrate.

USAGE:
  store, err := sqlstore.New("./flights.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := flight.New(store)

SEE ALSO:
  - flight/store.go: Interface definitions
  - tx.go: Transactional operations
  - admin.go: Reset, dataset import, inspection helpers
*/
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/flight-engine/flight"
)

const (
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"
)

const sqliteParams = "_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000"

var (
	flightColumns = []string{
		"fid", "day_of_month", "carrier_id", "flight_num", "origin_city",
		"dest_city", "actual_time", "capacity", "price", "canceled",
	}
	reservationColumns = []string{
		"rid", "username", "day_of_month", "fid1", "fid2", "price1", "price2", "paid",
	}
)

// Store implements flight.TxStore.
type Store struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	txOpts *sql.TxOptions
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// New opens a SQLite store at dbPath. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	return Open(DriverSQLite, dbPath)
}

// Open connects with the given driver, then migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	s := &Store{}
	connDSN := dsn

	switch driver {
	case DriverSQLite:
		s.sb = sq.StatementBuilder.PlaceholderFormat(sq.Question)
		connDSN = withParams(dsn, sqliteParams)
	case DriverPgx:
		s.sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
		s.txOpts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, connDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite && isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s.db = db

	if err := runMigrations(db, driver, connDSN); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func withParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// =============================================================================
// TRANSACTIONAL STORE (flight.TxStore interface)
// =============================================================================

// WithTx executes fn within one serializable database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(flight.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapErr(err))
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapErr(err))
	}
	return nil
}

// =============================================================================
// READS (flight.Store interface)
// =============================================================================

func (s *Store) Customer(ctx context.Context, username string) (flight.Customer, error) {
	query, args, err := s.sb.
		Select("username", "password_hash", "balance").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return flight.Customer{}, fmt.Errorf("build customer sql: %w", err)
	}

	var (
		c    flight.Customer
		hash string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&c.Username, &hash, &c.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return flight.Customer{}, flight.ErrCustomerNotFound
	}
	if err != nil {
		return flight.Customer{}, fmt.Errorf("get customer: %w", mapErr(err))
	}
	c.PasswordHash = []byte(hash)
	return c, nil
}

func (s *Store) DirectFlights(ctx context.Context, origin, dest string, day, limit int) ([]flight.Flight, error) {
	query, args, err := s.sb.
		Select(flightColumns...).
		From("flights").
		Where(sq.Eq{
			"origin_city":  origin,
			"dest_city":    dest,
			"day_of_month": day,
			"canceled":     0,
		}).
		OrderBy("actual_time ASC", "fid ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build direct flights sql: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query direct flights: %w", mapErr(err))
	}
	defer rows.Close()

	var flights []flight.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (s *Store) OneStopFlights(ctx context.Context, origin, dest string, day, limit int) ([][2]flight.Flight, error) {
	cols := make([]string, 0, 2*len(flightColumns))
	for _, prefix := range []string{"f1.", "f2."} {
		for _, c := range flightColumns {
			cols = append(cols, prefix+c)
		}
	}

	query, args, err := s.sb.
		Select(cols...).
		From("flights f1").
		Join("flights f2 ON f1.dest_city = f2.origin_city AND f1.day_of_month = f2.day_of_month").
		Where(sq.Eq{
			"f1.origin_city":  origin,
			"f2.dest_city":    dest,
			"f1.day_of_month": day,
			"f1.canceled":     0,
			"f2.canceled":     0,
		}).
		OrderBy("f1.actual_time + f2.actual_time ASC", "f1.fid ASC", "f2.fid ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build one-stop flights sql: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query one-stop flights: %w", mapErr(err))
	}
	defer rows.Close()

	var pairs [][2]flight.Flight
	for rows.Next() {
		var p [2]flight.Flight
		var canceled1, canceled2 int
		err := rows.Scan(
			&p[0].FID, &p[0].DayOfMonth, &p[0].CarrierID, &p[0].FlightNum, &p[0].OriginCity,
			&p[0].DestCity, &p[0].Duration, &p[0].Capacity, &p[0].Price, &canceled1,
			&p[1].FID, &p[1].DayOfMonth, &p[1].CarrierID, &p[1].FlightNum, &p[1].OriginCity,
			&p[1].DestCity, &p[1].Duration, &p[1].Capacity, &p[1].Price, &canceled2,
		)
		if err != nil {
			return nil, fmt.Errorf("scan one-stop flights: %w", err)
		}
		p[0].Canceled, p[1].Canceled = canceled1 != 0, canceled2 != 0
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *Store) Flight(ctx context.Context, fid int64) (flight.Flight, error) {
	return s.flight(ctx, s.db, fid)
}

func (s *Store) ReservationsOf(ctx context.Context, username string) ([]flight.Reservation, error) {
	return s.reservationsOf(ctx, s.db, username)
}

func (s *Store) flight(ctx context.Context, q querier, fid int64) (flight.Flight, error) {
	query, args, err := s.sb.
		Select(flightColumns...).
		From("flights").
		Where(sq.Eq{"fid": fid}).
		ToSql()
	if err != nil {
		return flight.Flight{}, fmt.Errorf("build flight sql: %w", err)
	}

	f, err := scanFlight(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return flight.Flight{}, fmt.Errorf("%w: %d", flight.ErrFlightNotFound, fid)
	}
	return f, err
}

func (s *Store) reservationsOf(ctx context.Context, q querier, username string) ([]flight.Reservation, error) {
	query, args, err := s.sb.
		Select(reservationColumns...).
		From("reservations").
		Where(sq.Eq{"username": username}).
		OrderBy("rid ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reservations sql: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", mapErr(err))
	}
	defer rows.Close()

	var out []flight.Reservation
	for rows.Next() {
		var r flight.Reservation
		if err := rows.Scan(&r.ID, &r.Owner, &r.DayOfMonth, &r.Leg1FID, &r.Leg2FID, &r.Price1, &r.Price2, &r.Paid); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanFlight(sc scanner) (flight.Flight, error) {
	var (
		f        flight.Flight
		canceled int
	)
	err := sc.Scan(
		&f.FID, &f.DayOfMonth, &f.CarrierID, &f.FlightNum, &f.OriginCity,
		&f.DestCity, &f.Duration, &f.Capacity, &f.Price, &canceled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return f, err
	}
	if err != nil {
		return f, fmt.Errorf("failed to scan flight: %w", mapErr(err))
	}
	f.Canceled = canceled != 0
	return f, nil
}

var _ flight.TxStore = (*Store)(nil)
