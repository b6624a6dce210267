package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/flight-engine/flight"
)

// Every rendered result ends with a newline.

func renderCreate(res flight.CreateCustomerResult, err error) string {
	if err != nil {
		return "Failed to create user\n"
	}
	return fmt.Sprintf("Created user %s\n", res.Username)
}

func renderLogin(res flight.LoginResult, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Logged in as %s\n", res.Username)
	case errors.Is(err, flight.ErrAlreadyLoggedIn):
		return "User already logged in\n"
	default:
		return "Login failed\n"
	}
}

func renderSearch(res flight.SearchResult, err error) string {
	if err != nil {
		return "Failed to search\n"
	}
	if res.NoMatches() {
		return "No flights match your selection\n"
	}

	var sb strings.Builder
	for _, it := range res.Itineraries {
		fmt.Fprintf(&sb, "Itinerary %d: %d flight(s), %d minutes\n", it.Ordinal, len(it.Legs), it.Duration)
		for _, leg := range it.Legs {
			sb.WriteString(leg.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func renderBook(ordinal int, res flight.BookResult, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Booked flight(s), reservation ID: %d\n", res.ReservationID)
	case errors.Is(err, flight.ErrNotLoggedIn):
		return "Cannot book reservations, not logged in\n"
	case errors.Is(err, flight.ErrNoSuchItinerary):
		return fmt.Sprintf("No such itinerary %d\n", ordinal)
	case errors.Is(err, flight.ErrSameDayConflict):
		return "You cannot book two flights in the same day\n"
	default:
		return "Booking failed\n"
	}
}

func renderReservations(res flight.ReservationsResult, err error) string {
	switch {
	case errors.Is(err, flight.ErrNotLoggedIn):
		return "Cannot view reservations, not logged in\n"
	case err != nil:
		return "Failed to retrieve reservations\n"
	case res.Empty():
		return "No reservations found\n"
	}

	var sb strings.Builder
	for _, r := range res.Reservations {
		fmt.Fprintf(&sb, "Reservation %d paid: %t:\n", r.ID, r.Paid)
		for _, leg := range r.Legs {
			sb.WriteString(leg.String())
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func renderPay(rid int64, username string, res flight.PayResult, err error) string {
	var funds *flight.InsufficientFundsError
	switch {
	case err == nil:
		return fmt.Sprintf("Paid reservation: %d remaining balance: %d\n", res.ReservationID, res.Balance)
	case errors.Is(err, flight.ErrNotLoggedIn):
		return "Cannot pay, not logged in\n"
	case errors.Is(err, flight.ErrNoUnpaidReservation):
		return fmt.Sprintf("Cannot find unpaid reservation %d under user: %s\n", rid, username)
	case errors.As(err, &funds):
		return fmt.Sprintf("User has only %d in account but itinerary costs %d\n", funds.Balance, funds.Cost)
	default:
		return fmt.Sprintf("Failed to pay for reservation %d\n", rid)
	}
}

func renderCancel(rid int64, res flight.CancelResult, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Canceled reservation %d\n", res.ReservationID)
	case errors.Is(err, flight.ErrNotLoggedIn):
		return "Cannot cancel reservations, not logged in\n"
	default:
		return fmt.Sprintf("Failed to cancel reservation %d\n", rid)
	}
}
