package flight

import "context"

type ReservationsResult struct {
	Reservations []ReservationDetail
}

func (r ReservationsResult) Empty() bool { return len(r.Reservations) == 0 }

// Reservations lists the customer's reservations by id, each with fresh
// snapshots of its legs.
func (e *Engine) Reservations(ctx context.Context, s *Session) (ReservationsResult, error) {
	if !s.LoggedIn() {
		return ReservationsResult{}, e.fail(OpReservations, s, ErrNotLoggedIn)
	}

	rs, err := e.store.ReservationsOf(ctx, s.Username())
	if err != nil {
		return ReservationsResult{}, e.fail(OpReservations, s, err)
	}

	out := make([]ReservationDetail, 0, len(rs))
	for _, r := range rs {
		d := ReservationDetail{Reservation: r}
		for _, fid := range r.FIDs() {
			f, err := e.store.Flight(ctx, fid)
			if err != nil {
				return ReservationsResult{}, e.fail(OpReservations, s, err)
			}
			d.Legs = append(d.Legs, f)
		}
		out = append(out, d)
	}
	return ReservationsResult{Reservations: out}, nil
}
