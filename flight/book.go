/*
book.go - Booking: itinerary ordinal to persisted reservation

ALGORITHM (one serializable transaction):
  1. Re-read every leg; canceled legs abort the booking
  2. Reject if the customer already holds a reservation on that day
  3. Allocate the next id from the high-water mark
  4. Seed and check capacity of every leg; any leg below 1 aborts
  5. Insert the reservation (unpaid) and take one seat per leg
  6. Commit

  Any failure rolls back all of the above, including the id allocation.
  The cached itinerary stays valid so the caller may retry.
*/
package flight

import (
	"context"
	"fmt"

	"github.com/warp/flight-engine/logger"
)

type BookResult struct {
	ReservationID int64
	Itinerary     Itinerary
}

func (e *Engine) Book(ctx context.Context, s *Session, ordinal int) (BookResult, error) {
	if !s.LoggedIn() {
		return BookResult{}, e.fail(OpBook, s, ErrNotLoggedIn)
	}
	it, ok := s.Itinerary(ordinal)
	if !ok {
		return BookResult{}, e.fail(OpBook, s, fmt.Errorf("%w: %d", ErrNoSuchItinerary, ordinal))
	}

	owner := s.Username()
	var rid int64
	err := e.store.WithTx(ctx, func(tx Tx) error {
		legs, err := freshLegs(ctx, tx, it)
		if err != nil {
			return err
		}
		day := legs[0].DayOfMonth

		existing, err := tx.ReservationsOf(ctx, owner)
		if err != nil {
			return err
		}
		for _, r := range existing {
			if r.DayOfMonth == day {
				return fmt.Errorf("%w: reservation %d on day %d", ErrSameDayConflict, r.ID, day)
			}
		}

		rid, err = tx.NextReservationID(ctx)
		if err != nil {
			return err
		}

		for _, leg := range legs {
			if err := tx.EnsureCapacity(ctx, leg.FID); err != nil {
				return err
			}
			remaining, err := tx.Capacity(ctx, leg.FID)
			if err != nil {
				return err
			}
			if remaining < 1 {
				return fmt.Errorf("%w: flight %d", ErrNoCapacity, leg.FID)
			}
		}

		r := Reservation{
			ID:         rid,
			Owner:      owner,
			DayOfMonth: day,
			Leg1FID:    legs[0].FID,
			Price1:     legs[0].Price,
		}
		if len(legs) == 2 {
			r.Leg2FID = legs[1].FID
			r.Price2 = legs[1].Price
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		for _, leg := range legs {
			if err := tx.TakeSeat(ctx, leg.FID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return BookResult{}, e.fail(OpBook, s, err, logger.F("itinerary", ordinal))
	}

	e.log.Info("booked",
		logger.F("user", owner),
		logger.F("rid", rid),
		logger.F("legs", len(it.Legs)),
	)
	return BookResult{ReservationID: rid, Itinerary: it}, nil
}

// freshLegs re-reads the itinerary's flights inside the transaction so
// prices and days come from the store, not from the search snapshot.
func freshLegs(ctx context.Context, tx Tx, it Itinerary) ([]Flight, error) {
	if len(it.Legs) == 0 || len(it.Legs) > 2 {
		return nil, fmt.Errorf("%w: itinerary %d has %d legs", ErrNoSuchItinerary, it.Ordinal, len(it.Legs))
	}
	legs := make([]Flight, 0, len(it.Legs))
	for _, cached := range it.Legs {
		f, err := tx.Flight(ctx, cached.FID)
		if err != nil {
			return nil, err
		}
		if f.Canceled {
			return nil, fmt.Errorf("%w: flight %d", ErrFlightCanceled, f.FID)
		}
		legs = append(legs, f)
	}
	return legs, nil
}
