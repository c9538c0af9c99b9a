package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusProcessing}:   true,
		{OrderStatusPending, OrderStatusCancelled}:    true,
		{OrderStatusProcessing, OrderStatusShipped}:   true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
		{OrderStatusShipped, OrderStatusDelivered}:    true,
		{OrderStatusShipped, OrderStatusCancelled}:    true,
		{OrderStatusDelivered, OrderStatusCompleted}:  true,
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[[2]OrderStatus{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range AllStatuses() {
		terminal := s == OrderStatusCompleted || s == OrderStatusCancelled
		assert.Equal(t, terminal, s.IsTerminal(), s)
		assert.Equal(t, terminal, len(s.NextStatuses()) == 0, s)
	}
	assert.ElementsMatch(t, []OrderStatus{OrderStatusCompleted, OrderStatusCancelled}, TerminalStatuses())
}

func TestNextStatusesIsACopy(t *testing.T) {
	next := OrderStatusPending.NextStatuses()
	next[0] = OrderStatusCompleted
	assert.Equal(t, OrderStatusProcessing, OrderStatusPending.NextStatuses()[0])
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    OrderStatus
		wantErr bool
	}{
		{"pending", OrderStatusPending, false},
		{"  Shipped ", OrderStatusShipped, false},
		{"CANCELLED", OrderStatusCancelled, false},
		{"refunded", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidStatus)
				assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransitionErrorUnwrap(t *testing.T) {
	var err error = &TransitionError{From: OrderStatusCancelled, To: OrderStatusProcessing}
	assert.True(t, errors.Is(err, ErrTerminalStatus))
	assert.False(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "already cancelled")

	err = &TransitionError{From: OrderStatusPending, To: OrderStatusDelivered}
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, apperror.KindRule, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "from pending to delivered")
}
