package order

import (
	"fmt"

	"github.com/your-org/caster-store/internal/pkg/apperror"
)

var (
	ErrOrderNotFound     = apperror.New(apperror.KindNotFound, "order not found")
	ErrInvalidStatus     = apperror.New(apperror.KindValidation, "invalid order status")
	ErrTerminalStatus    = apperror.New(apperror.KindRule, "order is already completed or cancelled")
	ErrInvalidTransition = apperror.New(apperror.KindRule, "order status transition not allowed")
	ErrUnknownProduct    = apperror.New(apperror.KindRule, "product not found")
	ErrEmptyOrder        = apperror.New(apperror.KindValidation, "order must contain at least one item")
	ErrMissingOwner      = apperror.New(apperror.KindValidation, "session_id is required for guest checkout")
	ErrForbidden         = apperror.New(apperror.KindForbidden, "admin access required")
	ErrCancelNotAllowed  = apperror.New(apperror.KindRule, "only pending orders can be cancelled")
)

// TransitionError reports a rejected status change
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	if e.From.IsTerminal() {
		return fmt.Sprintf("order is already %s and cannot change to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	if e.From.IsTerminal() {
		return ErrTerminalStatus
	}
	return ErrInvalidTransition
}
