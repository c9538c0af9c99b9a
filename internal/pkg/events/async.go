package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/order"
)

const (
	DefaultQueueSize = 256
	deliveryTimeout  = 10 * time.Second
)

var ErrPublisherClosed = errors.New("event publisher is closed")

type queuedEvent struct {
	ctx   context.Context
	event order.Event
}

// Async hands events to a background worker so a slow broker or mail relay
// never holds up the request that produced them. Events that arrive while
// the queue is full are dropped and logged.
type Async struct {
	next    order.EventPublisher
	queue   chan queuedEvent
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts the worker delivering to next
func NewAsync(next order.EventPublisher, size int) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	a := &Async{
		next:    next,
		queue:   make(chan queuedEvent, size),
		timeout: deliveryTimeout,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

// Publish enqueues the event. It only fails once the publisher is closed.
func (a *Async) Publish(ctx context.Context, event order.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}

	select {
	case a.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		logrus.WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"event":    event.Type,
		}).Warn("Order event queue full, dropping event")
	}
	return nil
}

func (a *Async) run() {
	defer close(a.done)
	for item := range a.queue {
		ctx, cancel := context.WithTimeout(item.ctx, a.timeout)
		if err := a.next.Publish(ctx, item.event); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"order_id": item.event.OrderID,
				"event":    item.event.Type,
			}).Warn("Failed to publish order event")
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queue to drain
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	<-a.done
	return nil
}
