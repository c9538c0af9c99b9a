package product

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListFilter is a normalized product query
type ListFilter struct {
	Page               int
	Limit              int
	CategoryID         uint
	CategorySlug       string
	Search             string
	MinPrice           *decimal.Decimal
	MaxPrice           *decimal.Decimal
	InStockOnly        bool
	Featured           *bool
	IncludeUnpublished bool
	SortBy             string
	SortOrder          string
}

// Repository persists products
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, int64, error)
	GetByID(ctx context.Context, id uint) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, p *Product) error
	// Update writes every column except stock_quantity, which only moves
	// through SetStock and order transactions.
	Update(ctx context.Context, p *Product) error
	// Delete removes the product unless an order that is not yet completed
	// or cancelled references it (ErrProductInUse). The check and the
	// delete hold the product row lock.
	Delete(ctx context.Context, id uint) error
	SetStock(ctx context.Context, id uint, quantity int) error
}

// CategoryRepository persists categories
type CategoryRepository interface {
	ListWithCounts(ctx context.Context, includeInactive bool) ([]CategoryWithCount, error)
	GetByID(ctx context.Context, id uint) (*Category, error)
	GetBySlug(ctx context.Context, slug string) (*Category, error)
	GetByName(ctx context.Context, name string) (*Category, error)
	Create(ctx context.Context, c *Category) error
}
