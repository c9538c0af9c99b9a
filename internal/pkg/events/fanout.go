package events

import (
	"context"
	"errors"

	"github.com/your-org/caster-store/internal/domain/order"
)

// Fanout delivers every event to each publisher in turn. All publishers are
// tried; their errors are joined.
type Fanout []order.EventPublisher

func (f Fanout) Publish(ctx context.Context, event order.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
