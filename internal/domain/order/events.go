package order

import (
	"context"
	"time"
)

// EventType names an order lifecycle event
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is emitted after an order transaction commits
type Event struct {
	Type           EventType   `json:"type"`
	OrderID        uint        `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	Order          *Order      `json:"order"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// EventPublisher delivers order events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
