package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	sentinel := New(KindRule, "insufficient stock")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
		{name: "direct", err: NotFound("order %d not found", 7), want: KindNotFound},
		{name: "wrapped with fmt", err: fmt.Errorf("%w: product 3", sentinel), want: KindRule},
		{name: "wrap keeps cause", err: Wrap(KindConflict, errors.New("duplicate key"), "sku already exists"), want: KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindConflict, cause, "sku already exists")

	assert.Equal(t, "sku already exists: duplicate key", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(nil, KindConflict))
}
