package product

import (
	"fmt"

	"github.com/your-org/caster-store/internal/pkg/apperror"
)

var (
	ErrProductNotFound   = apperror.New(apperror.KindNotFound, "product not found")
	ErrCategoryNotFound  = apperror.New(apperror.KindNotFound, "category not found")
	ErrDuplicateSKU      = apperror.New(apperror.KindConflict, "product with this SKU already exists")
	ErrDuplicateSlug     = apperror.New(apperror.KindConflict, "category with this slug already exists")
	ErrDuplicateProduct  = apperror.New(apperror.KindConflict, "product with this slug or SKU already exists")
	ErrProductInUse      = apperror.New(apperror.KindConflict, "product is referenced by an active order")
	ErrInsufficientStock = apperror.New(apperror.KindRule, "insufficient stock")
)

// InsufficientStockError names the product that cannot cover a request
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
