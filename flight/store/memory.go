// Package store provides an in-memory flight.TxStore for tests.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/flight-engine/flight"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every table in maps. WithTx holds the write lock for the
// whole transaction, so transactions are serial by construction.
type Memory struct {
	mu sync.RWMutex
	memoryState

	// faults maps an operation name to the 1-based call that must fail.
	faults map[string]fault
	calls  map[string]int
}

type memoryState struct {
	customers    map[string]flight.Customer
	flights      map[int64]flight.Flight
	capacity     map[int64]int
	reservations map[int64]flight.Reservation
	lastRID      int64
}

type fault struct {
	call int
	err  error
}

// Fault points, one per Tx method plus commit.
const (
	OpInsertCustomer    = "InsertCustomer"
	OpNextReservationID = "NextReservationID"
	OpEnsureCapacity    = "EnsureCapacity"
	OpTakeSeat          = "TakeSeat"
	OpReleaseSeat       = "ReleaseSeat"
	OpInsertReservation = "InsertReservation"
	OpDeleteReservation = "DeleteReservation"
	OpMarkPaid          = "MarkPaid"
	OpDebit             = "Debit"
	OpCredit            = "Credit"
	OpCommit            = "Commit"
	OpSearch            = "Search"
)

func NewMemory(flights ...flight.Flight) *Memory {
	m := &Memory{
		memoryState: memoryState{
			customers:    make(map[string]flight.Customer),
			flights:      make(map[int64]flight.Flight),
			capacity:     make(map[int64]int),
			reservations: make(map[int64]flight.Reservation),
		},
		faults: make(map[string]fault),
		calls:  make(map[string]int),
	}
	for _, f := range flights {
		m.flights[f.FID] = f
	}
	return m
}

// FailOn makes the call-th invocation (counting from now, 1-based) of op
// return err. Each fault fires once.
func (m *Memory) FailOn(op string, call int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = fault{call: call, err: err}
	m.calls[op] = 0
}

func (m *Memory) inject(op string) error {
	f, ok := m.faults[op]
	if !ok {
		return nil
	}
	m.calls[op]++
	if m.calls[op] == f.call {
		delete(m.faults, op)
		return f.err
	}
	return nil
}

// Seats returns remaining seats, or base capacity if never booked.
func (m *Memory) Seats(fid int64) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.capacity[fid]; ok {
		return c, true
	}
	f, ok := m.flights[fid]
	return f.Capacity, ok
}

// BalanceOf is a test helper reading a balance outside any transaction.
func (m *Memory) BalanceOf(username string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customers[username].Balance
}

// LastReservationID returns the id high-water mark.
func (m *Memory) LastReservationID() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRID
}

// =============================================================================
// READS (flight.Store)
// =============================================================================

func (m *Memory) Customer(_ context.Context, username string) (flight.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[username]
	if !ok {
		return flight.Customer{}, flight.ErrCustomerNotFound
	}
	return c, nil
}

func (m *Memory) DirectFlights(_ context.Context, origin, dest string, day, limit int) ([]flight.Flight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.inject(OpSearch); err != nil {
		return nil, err
	}

	var out []flight.Flight
	for _, f := range m.flights {
		if f.OriginCity == origin && f.DestCity == dest && f.DayOfMonth == day && !f.Canceled {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Duration != out[j].Duration {
			return out[i].Duration < out[j].Duration
		}
		return out[i].FID < out[j].FID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) OneStopFlights(_ context.Context, origin, dest string, day, limit int) ([][2]flight.Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out [][2]flight.Flight
	for _, f1 := range m.flights {
		if f1.OriginCity != origin || f1.DayOfMonth != day || f1.Canceled {
			continue
		}
		for _, f2 := range m.flights {
			if f2.OriginCity == f1.DestCity && f2.DestCity == dest && f2.DayOfMonth == day && !f2.Canceled {
				out = append(out, [2]flight.Flight{f1, f2})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := out[i][0].Duration + out[i][1].Duration
		dj := out[j][0].Duration + out[j][1].Duration
		if di != dj {
			return di < dj
		}
		if out[i][0].FID != out[j][0].FID {
			return out[i][0].FID < out[j][0].FID
		}
		return out[i][1].FID < out[j][1].FID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Flight(_ context.Context, fid int64) (flight.Flight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flight(fid)
}

func (m *Memory) ReservationsOf(_ context.Context, username string) ([]flight.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reservationsOf(username), nil
}

func (s *memoryState) flight(fid int64) (flight.Flight, error) {
	f, ok := s.flights[fid]
	if !ok {
		return flight.Flight{}, fmt.Errorf("%w: %d", flight.ErrFlightNotFound, fid)
	}
	return f, nil
}

func (s *memoryState) reservationsOf(username string) []flight.Reservation {
	var out []flight.Reservation
	for _, r := range s.reservations {
		if r.Owner == username {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// WithTx executes fn under the write lock, restoring a snapshot if fn or
// the commit fault point fails.
func (m *Memory) WithTx(ctx context.Context, fn func(flight.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	err := fn(&txMemoryView{parent: m})
	if err == nil {
		err = m.inject(OpCommit)
	}
	if err != nil {
		m.memoryState = snapshot
		return err
	}
	return nil
}

func (m *Memory) snapshot() memoryState {
	s := memoryState{
		customers:    make(map[string]flight.Customer, len(m.customers)),
		flights:      m.flights,
		capacity:     make(map[int64]int, len(m.capacity)),
		reservations: make(map[int64]flight.Reservation, len(m.reservations)),
		lastRID:      m.lastRID,
	}
	for k, v := range m.customers {
		s.customers[k] = v
	}
	for k, v := range m.capacity {
		s.capacity[k] = v
	}
	for k, v := range m.reservations {
		s.reservations[k] = v
	}
	return s
}

// txMemoryView runs with the parent's write lock already held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) InsertCustomer(_ context.Context, c flight.Customer) error {
	if err := tv.parent.inject(OpInsertCustomer); err != nil {
		return err
	}
	if _, ok := tv.parent.customers[c.Username]; ok {
		return flight.ErrDuplicateCustomer
	}
	tv.parent.customers[c.Username] = c
	return nil
}

func (tv *txMemoryView) Flight(_ context.Context, fid int64) (flight.Flight, error) {
	return tv.parent.flight(fid)
}

func (tv *txMemoryView) ReservationsOf(_ context.Context, username string) ([]flight.Reservation, error) {
	return tv.parent.reservationsOf(username), nil
}

func (tv *txMemoryView) NextReservationID(_ context.Context) (int64, error) {
	if err := tv.parent.inject(OpNextReservationID); err != nil {
		return 0, err
	}
	tv.parent.lastRID++
	return tv.parent.lastRID, nil
}

func (tv *txMemoryView) EnsureCapacity(_ context.Context, fid int64) error {
	if err := tv.parent.inject(OpEnsureCapacity); err != nil {
		return err
	}
	if _, ok := tv.parent.capacity[fid]; ok {
		return nil
	}
	f, err := tv.parent.flight(fid)
	if err != nil {
		return err
	}
	tv.parent.capacity[fid] = f.Capacity
	return nil
}

func (tv *txMemoryView) Capacity(_ context.Context, fid int64) (int, error) {
	c, ok := tv.parent.capacity[fid]
	if !ok {
		return 0, fmt.Errorf("capacity of flight %d not seeded", fid)
	}
	return c, nil
}

func (tv *txMemoryView) TakeSeat(_ context.Context, fid int64) error {
	if err := tv.parent.inject(OpTakeSeat); err != nil {
		return err
	}
	if tv.parent.capacity[fid] <= 0 {
		return fmt.Errorf("%w: flight %d", flight.ErrNoCapacity, fid)
	}
	tv.parent.capacity[fid]--
	return nil
}

func (tv *txMemoryView) ReleaseSeat(_ context.Context, fid int64) error {
	if err := tv.parent.inject(OpReleaseSeat); err != nil {
		return err
	}
	c, ok := tv.parent.capacity[fid]
	if !ok {
		return nil
	}
	if c < tv.parent.flights[fid].Capacity {
		tv.parent.capacity[fid] = c + 1
	}
	return nil
}

func (tv *txMemoryView) InsertReservation(_ context.Context, r flight.Reservation) error {
	if err := tv.parent.inject(OpInsertReservation); err != nil {
		return err
	}
	if _, ok := tv.parent.reservations[r.ID]; ok {
		return fmt.Errorf("reservation %d already exists", r.ID)
	}
	if _, ok := tv.parent.customers[r.Owner]; !ok {
		return flight.ErrCustomerNotFound
	}
	tv.parent.reservations[r.ID] = r
	return nil
}

func (tv *txMemoryView) DeleteReservation(_ context.Context, rid int64) error {
	if err := tv.parent.inject(OpDeleteReservation); err != nil {
		return err
	}
	if _, ok := tv.parent.reservations[rid]; !ok {
		return flight.ErrReservationNotFound
	}
	delete(tv.parent.reservations, rid)
	return nil
}

func (tv *txMemoryView) MarkPaid(_ context.Context, rid int64) error {
	if err := tv.parent.inject(OpMarkPaid); err != nil {
		return err
	}
	r, ok := tv.parent.reservations[rid]
	if !ok || r.Paid {
		return flight.ErrNoUnpaidReservation
	}
	r.Paid = true
	tv.parent.reservations[rid] = r
	return nil
}

func (tv *txMemoryView) Balance(_ context.Context, username string) (int64, error) {
	c, ok := tv.parent.customers[username]
	if !ok {
		return 0, flight.ErrCustomerNotFound
	}
	return c.Balance, nil
}

func (tv *txMemoryView) Debit(_ context.Context, username string, amount int64) error {
	if err := tv.parent.inject(OpDebit); err != nil {
		return err
	}
	c, ok := tv.parent.customers[username]
	if !ok {
		return flight.ErrCustomerNotFound
	}
	if c.Balance < amount {
		return flight.ErrInsufficientFunds
	}
	c.Balance -= amount
	tv.parent.customers[username] = c
	return nil
}

func (tv *txMemoryView) Credit(_ context.Context, username string, amount int64) error {
	if err := tv.parent.inject(OpCredit); err != nil {
		return err
	}
	c, ok := tv.parent.customers[username]
	if !ok {
		return flight.ErrCustomerNotFound
	}
	c.Balance += amount
	tv.parent.customers[username] = c
	return nil
}

var _ flight.TxStore = (*Memory)(nil)

// ErrInjected is a convenience fault for tests.
var ErrInjected = errors.New("injected store failure")
