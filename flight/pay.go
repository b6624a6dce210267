package flight

import (
	"context"
	"fmt"

	"github.com/warp/flight-engine/logger"
)

type PayResult struct {
	ReservationID int64
	Cost          int64
	Balance       int64 // remaining balance after the debit
}

// Pay settles an unpaid reservation owned by the session's customer.
// The debit and the paid flag commit together or not at all.
func (e *Engine) Pay(ctx context.Context, s *Session, rid int64) (PayResult, error) {
	if !s.LoggedIn() {
		return PayResult{}, e.fail(OpPay, s, ErrNotLoggedIn)
	}

	owner := s.Username()
	var res PayResult
	err := e.store.WithTx(ctx, func(tx Tx) error {
		reservations, err := tx.ReservationsOf(ctx, owner)
		if err != nil {
			return err
		}
		r, ok := findReservation(reservations, rid)
		if !ok || r.Paid {
			return fmt.Errorf("%w: %d", ErrNoUnpaidReservation, rid)
		}

		cost := r.Cost()
		balance, err := tx.Balance(ctx, owner)
		if err != nil {
			return err
		}
		if balance < cost {
			return &InsufficientFundsError{ReservationID: rid, Balance: balance, Cost: cost}
		}

		if err := tx.Debit(ctx, owner, cost); err != nil {
			return err
		}
		if err := tx.MarkPaid(ctx, rid); err != nil {
			return err
		}
		res = PayResult{ReservationID: rid, Cost: cost, Balance: balance - cost}
		return nil
	})
	if err != nil {
		return PayResult{}, e.fail(OpPay, s, err, logger.F("rid", rid))
	}

	e.log.Info("paid",
		logger.F("user", owner),
		logger.F("rid", rid),
		logger.F("cost", res.Cost),
		logger.F("balance", res.Balance),
	)
	return res, nil
}

func findReservation(rs []Reservation, rid int64) (Reservation, bool) {
	for _, r := range rs {
		if r.ID == rid {
			return r, true
		}
	}
	return Reservation{}, false
}
