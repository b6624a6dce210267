package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/flight-engine/flight"
	"github.com/warp/flight-engine/store/sqlstore"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var testFlights = []flight.Flight{
	{FID: 1, DayOfMonth: 5, CarrierID: "AS", FlightNum: "100", OriginCity: "Seattle WA", DestCity: "New York NY", Duration: 300, Capacity: 1, Price: 200},
	{FID: 2, DayOfMonth: 5, CarrierID: "DL", FlightNum: "200", OriginCity: "Seattle WA", DestCity: "New York NY", Duration: 300, Capacity: 10, Price: 150},
	{FID: 3, DayOfMonth: 5, CarrierID: "UA", FlightNum: "300", OriginCity: "Seattle WA", DestCity: "Chicago IL", Duration: 200, Capacity: 5, Price: 80},
	{FID: 4, DayOfMonth: 5, CarrierID: "UA", FlightNum: "301", OriginCity: "Chicago IL", DestCity: "New York NY", Duration: 150, Capacity: 5, Price: 90},
	{FID: 5, DayOfMonth: 5, CarrierID: "WN", FlightNum: "400", OriginCity: "Seattle WA", DestCity: "Denver CO", Duration: 120, Capacity: 5, Price: 60},
	{FID: 6, DayOfMonth: 5, CarrierID: "WN", FlightNum: "401", OriginCity: "Denver CO", DestCity: "New York NY", Duration: 230, Capacity: 0, Price: 70},
	{FID: 7, DayOfMonth: 6, CarrierID: "AS", FlightNum: "102", OriginCity: "Seattle WA", DestCity: "New York NY", Duration: 290, Capacity: 3, Price: 210},
	{FID: 8, DayOfMonth: 5, CarrierID: "AA", FlightNum: "500", OriginCity: "Seattle WA", DestCity: "New York NY", Duration: 100, Capacity: 3, Price: 999, Canceled: true},
}

func newTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InsertFlights(context.Background(), testFlights...))
	return store
}

func addCustomer(t *testing.T, store *sqlstore.Store, username string, balance int64) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx flight.Tx) error {
		return tx.InsertCustomer(context.Background(), flight.Customer{
			Username:     username,
			PasswordHash: []byte("hash"),
			Balance:      balance,
		})
	})
	require.NoError(t, err)
}

func fids(flights []flight.Flight) []int64 {
	out := make([]int64, len(flights))
	for i, f := range flights {
		out[i] = f.FID
	}
	return out
}

// =============================================================================
// OPEN / MIGRATE
// =============================================================================

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := sqlstore.Open("mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestNew_FileDatabaseMigratesOnce(t *testing.T) {
	path := t.TempDir() + "/flights.db"

	first, err := sqlstore.New(path)
	require.NoError(t, err)
	require.NoError(t, first.InsertFlights(context.Background(), testFlights[0]))
	require.NoError(t, first.Close())

	second, err := sqlstore.New(path)
	require.NoError(t, err)
	defer second.Close()

	f, err := second.Flight(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, testFlights[0], f)
}

// =============================================================================
// READS
// =============================================================================

func TestFlight_RoundTripsAllColumns(t *testing.T) {
	store := newTestStore(t)

	f, err := store.Flight(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, testFlights[7], f)

	_, err = store.Flight(context.Background(), 42)
	assert.ErrorIs(t, err, flight.ErrFlightNotFound)
}

func TestDirectFlights_OrderAndFilters(t *testing.T) {
	// GIVEN: Two equal-duration flights, a canceled faster one, one on another day
	// WHEN: Searching Seattle to New York on day 5
	// THEN: Canceled and other-day flights are excluded, ties break by fid

	store := newTestStore(t)

	got, err := store.DirectFlights(context.Background(), "Seattle WA", "New York NY", 5, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, fids(got))

	got, err = store.DirectFlights(context.Background(), "Seattle WA", "New York NY", 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, fids(got))
}

func TestOneStopFlights_OrderedBySummedDuration(t *testing.T) {
	store := newTestStore(t)

	pairs, err := store.OneStopFlights(context.Background(), "Seattle WA", "New York NY", 5, 10)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	// 200+150 = 350 (via Chicago), 120+230 = 350 (via Denver): tie broken by first leg fid
	assert.Equal(t, [2]int64{3, 4}, [2]int64{pairs[0][0].FID, pairs[0][1].FID})
	assert.Equal(t, [2]int64{5, 6}, [2]int64{pairs[1][0].FID, pairs[1][1].FID})

	pairs, err = store.OneStopFlights(context.Background(), "Seattle WA", "New York NY", 5, 1)
	require.NoError(t, err)
	assert.Len(t, pairs, 1)
}

func TestCustomer_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Customer(context.Background(), "nobody")
	assert.ErrorIs(t, err, flight.ErrCustomerNotFound)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestInsertCustomer_Duplicate(t *testing.T) {
	store := newTestStore(t)
	addCustomer(t, store, "alice", 100)

	err := store.WithTx(context.Background(), func(tx flight.Tx) error {
		return tx.InsertCustomer(context.Background(), flight.Customer{Username: "alice", PasswordHash: []byte("x")})
	})
	assert.ErrorIs(t, err, flight.ErrDuplicateCustomer)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	store := newTestStore(t)
	addCustomer(t, store, "alice", 100)
	boom := errors.New("boom")

	err := store.WithTx(context.Background(), func(tx flight.Tx) error {
		if _, err := tx.NextReservationID(context.Background()); err != nil {
			return err
		}
		if err := tx.Debit(context.Background(), "alice", 40); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	balance, err := store.BalanceOf(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	last, err := store.LastReservationID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)
}

func TestNextReservationID_Monotonic(t *testing.T) {
	store := newTestStore(t)

	var ids []int64
	for i := 0; i < 3; i++ {
		err := store.WithTx(context.Background(), func(tx flight.Tx) error {
			rid, err := tx.NextReservationID(context.Background())
			ids = append(ids, rid)
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestCapacity_SeedTakeRelease(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx flight.Tx) error {
		require.NoError(t, tx.EnsureCapacity(ctx, 1))
		require.NoError(t, tx.EnsureCapacity(ctx, 1)) // second seed is a no-op

		seats, err := tx.Capacity(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, seats)

		require.NoError(t, tx.TakeSeat(ctx, 1))
		assert.ErrorIs(t, tx.TakeSeat(ctx, 1), flight.ErrNoCapacity)

		require.NoError(t, tx.ReleaseSeat(ctx, 1))
		require.NoError(t, tx.ReleaseSeat(ctx, 1)) // capped at base capacity

		seats, err = tx.Capacity(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, seats)
		return nil
	})
	require.NoError(t, err)
}

func TestCapacity_UnknownFlight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx flight.Tx) error {
		require.NoError(t, tx.EnsureCapacity(ctx, 99))
		_, err := tx.Capacity(ctx, 99)
		return err
	})
	assert.ErrorIs(t, err, flight.ErrFlightNotFound)
}

func TestSeats_FallsBackToBaseCapacity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seats, err := store.Seats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, seats)

	require.NoError(t, store.WithTx(ctx, func(tx flight.Tx) error {
		if err := tx.EnsureCapacity(ctx, 2); err != nil {
			return err
		}
		return tx.TakeSeat(ctx, 2)
	}))

	seats, err = store.Seats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 9, seats)
}

func TestReservations_InsertPayDelete(t *testing.T) {
	store := newTestStore(t)
	addCustomer(t, store, "alice", 500)
	ctx := context.Background()

	r := flight.Reservation{ID: 1, Owner: "alice", DayOfMonth: 5, Leg1FID: 3, Leg2FID: 4, Price1: 80, Price2: 90}
	require.NoError(t, store.WithTx(ctx, func(tx flight.Tx) error {
		return tx.InsertReservation(ctx, r)
	}))

	got, err := store.ReservationsOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []flight.Reservation{r}, got)

	err = store.WithTx(ctx, func(tx flight.Tx) error {
		if err := tx.Debit(ctx, "alice", r.Cost()); err != nil {
			return err
		}
		require.NoError(t, tx.MarkPaid(ctx, 1))
		return tx.MarkPaid(ctx, 1)
	})
	assert.ErrorIs(t, err, flight.ErrNoUnpaidReservation)

	require.NoError(t, store.WithTx(ctx, func(tx flight.Tx) error {
		if err := tx.MarkPaid(ctx, 1); err != nil {
			return err
		}
		return tx.Debit(ctx, "alice", r.Cost())
	}))

	balance, err := store.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(330), balance)

	err = store.WithTx(ctx, func(tx flight.Tx) error {
		require.NoError(t, tx.DeleteReservation(ctx, 1))
		return tx.DeleteReservation(ctx, 1)
	})
	assert.ErrorIs(t, err, flight.ErrReservationNotFound)
}

func TestDebit_InsufficientFunds(t *testing.T) {
	store := newTestStore(t)
	addCustomer(t, store, "alice", 50)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx flight.Tx) error {
		return tx.Debit(ctx, "alice", 51)
	})
	assert.ErrorIs(t, err, flight.ErrInsufficientFunds)

	err = store.WithTx(ctx, func(tx flight.Tx) error {
		return tx.Credit(ctx, "nobody", 1)
	})
	assert.ErrorIs(t, err, flight.ErrCustomerNotFound)
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

func TestClear_KeepsFlights(t *testing.T) {
	store := newTestStore(t)
	addCustomer(t, store, "alice", 100)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx flight.Tx) error {
		rid, err := tx.NextReservationID(ctx)
		if err != nil {
			return err
		}
		if err := tx.EnsureCapacity(ctx, 1); err != nil {
			return err
		}
		if err := tx.TakeSeat(ctx, 1); err != nil {
			return err
		}
		return tx.InsertReservation(ctx, flight.Reservation{ID: rid, Owner: "alice", DayOfMonth: 5, Leg1FID: 1, Price1: 200})
	}))

	require.NoError(t, store.Clear(ctx))

	_, err := store.Customer(ctx, "alice")
	assert.ErrorIs(t, err, flight.ErrCustomerNotFound)

	last, err := store.LastReservationID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), last)

	seats, err := store.Seats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, seats)

	_, err = store.Flight(ctx, 1)
	assert.NoError(t, err)
}
