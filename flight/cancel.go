package flight

import (
	"context"
	"fmt"

	"github.com/warp/flight-engine/logger"
)

type CancelResult struct {
	ReservationID int64
	Refunded      int64 // zero for unpaid reservations
}

// Cancel deletes one of the customer's reservations, gives each leg its
// seat back and refunds the cost if it was paid. The id is retired for
// good: the id counter never moves backwards.
func (e *Engine) Cancel(ctx context.Context, s *Session, rid int64) (CancelResult, error) {
	if !s.LoggedIn() {
		return CancelResult{}, e.fail(OpCancel, s, ErrNotLoggedIn)
	}

	owner := s.Username()
	var res CancelResult
	err := e.store.WithTx(ctx, func(tx Tx) error {
		reservations, err := tx.ReservationsOf(ctx, owner)
		if err != nil {
			return err
		}
		r, ok := findReservation(reservations, rid)
		if !ok {
			return fmt.Errorf("%w: %d", ErrReservationNotFound, rid)
		}

		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return err
		}
		for _, fid := range r.FIDs() {
			if err := tx.EnsureCapacity(ctx, fid); err != nil {
				return err
			}
			if err := tx.ReleaseSeat(ctx, fid); err != nil {
				return err
			}
		}
		res = CancelResult{ReservationID: r.ID}
		if r.Paid {
			if err := tx.Credit(ctx, owner, r.Cost()); err != nil {
				return err
			}
			res.Refunded = r.Cost()
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, e.fail(OpCancel, s, err, logger.F("rid", rid))
	}

	e.log.Info("canceled",
		logger.F("user", owner),
		logger.F("rid", rid),
		logger.F("refunded", res.Refunded),
	)
	return res, nil
}
