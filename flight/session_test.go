package flight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_NewIsUnbound(t *testing.T) {
	s := NewSession()
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Username())
	assert.Empty(t, s.Itineraries())

	_, ok := s.Itinerary(0)
	assert.False(t, ok)
}

func TestItineraryCache_OrdinalsArePositions(t *testing.T) {
	// Two itineraries with the same duration must stay distinct.
	a := newItinerary(0, Flight{FID: 1, Duration: 300})
	b := newItinerary(1, Flight{FID: 2, Duration: 300})

	var c itineraryCache
	c.replace([]Itinerary{a, b})
	require.Equal(t, 2, c.len())

	got, ok := c.get(1)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Legs[0].FID)

	for _, ordinal := range []int{-1, 2} {
		_, ok := c.get(ordinal)
		assert.False(t, ok, "ordinal %d", ordinal)
	}
}

func TestItineraryCache_ReplaceDropsOldResults(t *testing.T) {
	var c itineraryCache
	c.replace([]Itinerary{newItinerary(0, Flight{FID: 1}), newItinerary(1, Flight{FID: 2})})
	c.replace([]Itinerary{newItinerary(0, Flight{FID: 3})})

	assert.Equal(t, 1, c.len())
	_, ok := c.get(1)
	assert.False(t, ok)

	c.replace(nil)
	assert.Equal(t, 0, c.len())
}

func TestItineraryCache_AllReturnsCopy(t *testing.T) {
	var c itineraryCache
	c.replace([]Itinerary{newItinerary(0, Flight{FID: 1})})

	all := c.all()
	all[0] = Itinerary{Ordinal: 9}

	got, _ := c.get(0)
	assert.Equal(t, 0, got.Ordinal)
}

func TestItinerary_Derived(t *testing.T) {
	it := newItinerary(4,
		Flight{FID: 3, DayOfMonth: 5, Duration: 200, Price: 80},
		Flight{FID: 4, DayOfMonth: 5, Duration: 150, Price: 90},
	)

	assert.Equal(t, 4, it.Ordinal)
	assert.Equal(t, 350, it.Duration)
	assert.Equal(t, int64(170), it.Price())
	assert.Equal(t, 5, it.DayOfMonth())
	assert.False(t, it.Direct())
}

func TestReservation_Legs(t *testing.T) {
	direct := Reservation{Leg1FID: 7, Price1: 210}
	assert.Equal(t, []int64{7}, direct.FIDs())
	assert.Equal(t, int64(210), direct.Cost())

	oneStop := Reservation{Leg1FID: 3, Leg2FID: 4, Price1: 80, Price2: 90}
	assert.Equal(t, []int64{3, 4}, oneStop.FIDs())
	assert.Equal(t, int64(170), oneStop.Cost())
}

func TestFlight_String(t *testing.T) {
	f := Flight{
		FID: 1, DayOfMonth: 5, CarrierID: "AS", FlightNum: "100",
		OriginCity: "Seattle WA", DestCity: "New York NY",
		Duration: 300, Capacity: 1, Price: 200,
	}
	assert.Equal(t,
		"ID: 1 Day: 5 Carrier: AS Number: 100 Origin: Seattle WA Dest: New York NY Duration: 300 Capacity: 1 Price: 200",
		f.String())
}
