package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/warp/flight-engine/flight"
)

// insertBatch bounds the rows per INSERT; SQLite caps bound parameters.
const insertBatch = 50

// =============================================================================
// ADMINISTRATION - Used by cmd/flights and tests, not by the engine
// =============================================================================

// Clear deletes every customer and reservation, drops seeded capacity and
// rewinds the reservation id counter. Flights are kept.
func (s *Store) Clear(ctx context.Context) error {
	return s.WithTx(ctx, func(ftx flight.Tx) error {
		t := ftx.(*txStore)
		steps := []struct {
			what string
			b    sq.Sqlizer
		}{
			{"clear reservations", s.sb.Delete("reservations")},
			{"clear users", s.sb.Delete("users")},
			{"clear capacity", s.sb.Delete("capacity")},
			{"reset reservation ids", s.sb.Update("reservation_ids").Set("last_rid", 0).Where(sq.Eq{"id": 1})},
		}
		for _, st := range steps {
			if _, err := t.exec(ctx, st.b, st.what); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertFlights loads flights in one transaction.
func (s *Store) InsertFlights(ctx context.Context, flights ...flight.Flight) error {
	return s.WithTx(ctx, func(ftx flight.Tx) error {
		t := ftx.(*txStore)
		for start := 0; start < len(flights); start += insertBatch {
			end := min(start+insertBatch, len(flights))
			b := s.sb.Insert("flights").Columns(flightColumns...)
			for _, f := range flights[start:end] {
				canceled := 0
				if f.Canceled {
					canceled = 1
				}
				b = b.Values(f.FID, f.DayOfMonth, f.CarrierID, f.FlightNum, f.OriginCity,
					f.DestCity, f.Duration, f.Capacity, f.Price, canceled)
			}
			if _, err := t.exec(ctx, b, "insert flights"); err != nil {
				return err
			}
		}
		return nil
	})
}

// Seats returns the remaining seats of a flight: the seeded count if it
// has been booked before, its base capacity otherwise.
func (s *Store) Seats(ctx context.Context, fid int64) (int, error) {
	query, args, err := s.sb.
		Select("COALESCE(c.capacity, f.capacity)").
		From("flights f").
		LeftJoin("capacity c ON c.fid = f.fid").
		Where(sq.Eq{"f.fid": fid}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build seats sql: %w", err)
	}

	var seats int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&seats)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %d", flight.ErrFlightNotFound, fid)
	}
	if err != nil {
		return 0, fmt.Errorf("get seats: %w", mapErr(err))
	}
	return seats, nil
}

// LastReservationID returns the id counter's high-water mark.
func (s *Store) LastReservationID(ctx context.Context) (int64, error) {
	query, args, err := s.sb.
		Select("last_rid").
		From("reservation_ids").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reservation id sql: %w", err)
	}

	var rid int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&rid); err != nil {
		return 0, fmt.Errorf("get reservation id: %w", mapErr(err))
	}
	return rid, nil
}

// BalanceOf returns a customer's balance.
func (s *Store) BalanceOf(ctx context.Context, username string) (int64, error) {
	c, err := s.Customer(ctx, username)
	if err != nil {
		return 0, err
	}
	return c.Balance, nil
}
