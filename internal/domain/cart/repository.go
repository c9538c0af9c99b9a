package cart

import (
	"context"

	"github.com/your-org/caster-store/internal/pkg/apperror"
)

var (
	ErrCartNotFound = apperror.New(apperror.KindNotFound, "cart not found")
	ErrItemNotFound = apperror.New(apperror.KindNotFound, "item not found in cart")
)

// Repository persists carts and their items
type Repository interface {
	// FindCart returns the owner's cart or ErrCartNotFound
	FindCart(ctx context.Context, owner Owner) (*Cart, error)
	GetOrCreateCart(ctx context.Context, owner Owner) (*Cart, error)
	// ListItems returns the cart's items with their products loaded
	ListItems(ctx context.Context, cartID uint) ([]CartItem, error)
	GetItem(ctx context.Context, cartID, productID uint) (*CartItem, error)
	SaveItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uint) error
	ClearItems(ctx context.Context, cartID uint) error
	DeleteCart(ctx context.Context, cartID uint) error
}
