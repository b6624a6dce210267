/*
Package flight provides the reservation transaction engine.

PURPOSE:
  Lets one authenticated customer per Session search itineraries, book
  them, pay and cancel, while the store guarantees that:
  - seat capacity is never oversold
  - account balances never go negative
  - reservation ids are never duplicated or reused

KEY CONCEPTS IN THIS FILE (types.go):
  - Flight: Immutable snapshot of one flight row
  - Itinerary: One or two legs returned by a search, addressed by ordinal
  - Reservation: A persisted booking of one itinerary
  - Customer: Account row (username, password hash, balance)

STATE OWNERSHIP:
  All state shared between sessions (capacity, reservation ids, balances)
  lives in the store. The only in-memory state is the Session's itinerary
  cache, which belongs to exactly one caller.

SEE ALSO:
  - store.go: Persistence interfaces
  - engine.go: Operations entry point
  - session.go: Session and itinerary cache
*/
package flight

import "fmt"

// =============================================================================
// FLIGHT
// =============================================================================

// Flight is a read-only snapshot of a flight row.
type Flight struct {
	FID        int64
	DayOfMonth int
	CarrierID  string
	FlightNum  string
	OriginCity string
	DestCity   string
	Duration   int // minutes
	Capacity   int // base capacity, not remaining seats
	Price      int64
	Canceled   bool
}

func (f Flight) String() string {
	return fmt.Sprintf("ID: %d Day: %d Carrier: %s Number: %s Origin: %s Dest: %s Duration: %d Capacity: %d Price: %d",
		f.FID, f.DayOfMonth, f.CarrierID, f.FlightNum, f.OriginCity, f.DestCity, f.Duration, f.Capacity, f.Price)
}

// =============================================================================
// ITINERARY
// =============================================================================

// Itinerary is one search result. Ordinal is its position in the search
// that produced it and is only meaningful until the next search.
type Itinerary struct {
	Ordinal  int
	Legs     []Flight
	Duration int
}

func newItinerary(ordinal int, legs ...Flight) Itinerary {
	it := Itinerary{Ordinal: ordinal, Legs: legs}
	for _, l := range legs {
		it.Duration += l.Duration
	}
	return it
}

// DayOfMonth is the travel day, taken from the first leg.
func (it Itinerary) DayOfMonth() int {
	if len(it.Legs) == 0 {
		return 0
	}
	return it.Legs[0].DayOfMonth
}

// Price is the sum of leg prices.
func (it Itinerary) Price() int64 {
	var total int64
	for _, l := range it.Legs {
		total += l.Price
	}
	return total
}

// Direct reports whether the itinerary has a single leg.
func (it Itinerary) Direct() bool { return len(it.Legs) == 1 }

// =============================================================================
// RESERVATION
// =============================================================================

// Reservation is a persisted booking. Leg2FID and Price2 are zero for
// direct itineraries.
type Reservation struct {
	ID         int64
	Owner      string
	DayOfMonth int
	Leg1FID    int64
	Leg2FID    int64
	Price1     int64
	Price2     int64
	Paid       bool
}

// Cost is what the owner pays, and what a paid cancellation refunds.
func (r Reservation) Cost() int64 { return r.Price1 + r.Price2 }

// FIDs returns the flight ids of the booked legs in order.
func (r Reservation) FIDs() []int64 {
	if r.Leg2FID == 0 {
		return []int64{r.Leg1FID}
	}
	return []int64{r.Leg1FID, r.Leg2FID}
}

// ReservationDetail pairs a reservation with fresh snapshots of its legs.
type ReservationDetail struct {
	Reservation
	Legs []Flight
}

// =============================================================================
// CUSTOMER
// =============================================================================

type Customer struct {
	Username     string
	PasswordHash []byte
	Balance      int64
}

// SearchQuery holds the search parameters.
type SearchQuery struct {
	Origin      string
	Destination string
	DirectOnly  bool
	DayOfMonth  int
	Limit       int
}
