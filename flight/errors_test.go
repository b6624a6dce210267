package flight

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrNotLoggedIn, KindAuth},
		{ErrAlreadyLoggedIn, KindAuth},
		{fmt.Errorf("%w: %w", ErrLoginFailed, ErrSerialization), KindAuth},
		{ErrInvalidCustomer, KindValidation},
		{fmt.Errorf("%w: alice", ErrDuplicateCustomer), KindValidation},
		{fmt.Errorf("%w: 3", ErrNoSuchItinerary), KindValidation},
		{ErrSameDayConflict, KindConflict},
		{ErrNoCapacity, KindConflict},
		{ErrFlightCanceled, KindConflict},
		{&InsufficientFundsError{Balance: 1, Cost: 2}, KindInsufficientFunds},
		{ErrNoUnpaidReservation, KindNotFound},
		{ErrReservationNotFound, KindNotFound},
		{ErrSerialization, KindStore},
		{errors.New("disk on fire"), KindStore},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err), tt.err.Error())
	}
}

func TestOpError(t *testing.T) {
	err := error(&OpError{Op: OpBook, Kind: KindConflict, Err: fmt.Errorf("%w: flight 1", ErrNoCapacity)})

	assert.ErrorIs(t, err, ErrNoCapacity)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, "book: conflict: no remaining capacity: flight 1", err.Error())

	wrapped := fmt.Errorf("console: %w", err)
	assert.Equal(t, KindConflict, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&OpError{Op: OpPay, Kind: KindStore, Err: fmt.Errorf("commit: %w", ErrSerialization)}))
	assert.False(t, IsRetryable(&OpError{Op: OpPay, Kind: KindStore, Err: errors.New("boom")}))
	assert.False(t, IsRetryable(nil))
}

func TestInsufficientFundsError(t *testing.T) {
	err := &InsufficientFundsError{ReservationID: 1, Balance: 100, Cost: 200}
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "insufficient funds: balance 100, cost 200", err.Error())
}
