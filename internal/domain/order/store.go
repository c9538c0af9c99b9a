package order

import (
	"context"

	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/product"
)

// ListFilter is a normalized order query
type ListFilter struct {
	Page   int
	Limit  int
	Status OrderStatus
	Search string
	UserID *uint
}

// Store persists orders. Every mutation goes through WithTx.
type Store interface {
	// WithTx runs fn in one transaction; any error rolls everything back
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// GetOrder returns the order with items and status history
	GetOrder(ctx context.Context, id uint) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
}

// Tx is the set of writes available inside an order transaction
type Tx interface {
	// LockProduct reads a product and holds it until the transaction ends
	LockProduct(ctx context.Context, id uint) (*product.Product, error)
	// DecrementStock fails with product.ErrInsufficientStock instead of
	// letting stock go negative
	DecrementStock(ctx context.Context, productID uint, quantity int) error
	IncrementStock(ctx context.Context, productID uint, quantity int) error
	CreateOrder(ctx context.Context, o *Order) error
	SetOrderNumber(ctx context.Context, id uint, number string) error
	// LockOrder reads an order with its items for update
	LockOrder(ctx context.Context, id uint) (*Order, error)
	SetStatus(ctx context.Context, id uint, status OrderStatus) error
	AddHistory(ctx context.Context, h *OrderStatusHistory) error
	RemoveCartLines(ctx context.Context, owner cart.Owner, productIDs []uint) error
}
