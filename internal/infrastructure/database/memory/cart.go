package memory

import (
	"context"
	"sort"

	"github.com/your-org/caster-store/internal/domain/cart"
)

// CartRepository implements cart.Repository
type CartRepository struct {
	db *DB
}

var _ cart.Repository = (*CartRepository)(nil)

func ownsCart(c cart.Cart, owner cart.Owner) bool {
	if owner.UserID != nil {
		return c.UserID != nil && *c.UserID == *owner.UserID
	}
	return c.SessionID != nil && *c.SessionID == owner.SessionID
}

func (d *dataset) findCart(owner cart.Owner) (cart.Cart, bool) {
	for _, c := range d.carts {
		if ownsCart(c, owner) {
			return c, true
		}
	}
	return cart.Cart{}, false
}

func (d *dataset) findCartItem(cartID, productID uint) (cart.CartItem, bool) {
	for _, item := range d.cartItems {
		if item.CartID == cartID && item.ProductID == productID {
			return item, true
		}
	}
	return cart.CartItem{}, false
}

func (r *CartRepository) FindCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	var (
		c  cart.Cart
		ok bool
	)
	r.db.read(func(d *dataset) { c, ok = d.findCart(owner) })
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return &c, nil
}

func (r *CartRepository) GetOrCreateCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.write(func(d *dataset) error {
		if existing, ok := d.findCart(owner); ok {
			c = existing
			return nil
		}
		now := r.db.timestamp()
		c = cart.Cart{ID: d.nextID("carts"), CreatedAt: now, UpdatedAt: now}
		if owner.UserID != nil {
			userID := *owner.UserID
			c.UserID = &userID
		} else {
			sessionID := owner.SessionID
			c.SessionID = &sessionID
		}
		d.carts[c.ID] = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	r.db.read(func(d *dataset) {
		for _, item := range d.cartItems {
			if item.CartID != cartID {
				continue
			}
			if p, ok := d.products[item.ProductID]; ok {
				p = d.withCategory(p)
				item.Product = &p
			}
			items = append(items, item)
		}
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *CartRepository) GetItem(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var (
		item cart.CartItem
		ok   bool
	)
	r.db.read(func(d *dataset) { item, ok = d.findCartItem(cartID, productID) })
	if !ok {
		return nil, cart.ErrItemNotFound
	}
	return &item, nil
}

func (r *CartRepository) SaveItem(ctx context.Context, item *cart.CartItem) error {
	return r.db.write(func(d *dataset) error {
		if _, ok := d.carts[item.CartID]; !ok {
			return cart.ErrCartNotFound
		}
		now := r.db.timestamp()
		if existing, ok := d.findCartItem(item.CartID, item.ProductID); ok {
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
		} else {
			item.ID = d.nextID("cart_items")
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		stored := *item
		stored.Product = nil
		d.cartItems[item.ID] = stored
		return nil
	})
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID, productID uint) error {
	return r.db.write(func(d *dataset) error {
		item, ok := d.findCartItem(cartID, productID)
		if !ok {
			return cart.ErrItemNotFound
		}
		delete(d.cartItems, item.ID)
		return nil
	})
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.db.write(func(d *dataset) error {
		d.clearCartItems(cartID, nil)
		return nil
	})
}

func (r *CartRepository) DeleteCart(ctx context.Context, cartID uint) error {
	return r.db.write(func(d *dataset) error {
		d.clearCartItems(cartID, nil)
		delete(d.carts, cartID)
		return nil
	})
}

// clearCartItems removes the cart's items, limited to productIDs when given
func (d *dataset) clearCartItems(cartID uint, productIDs []uint) {
	wanted := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	for id, item := range d.cartItems {
		if item.CartID != cartID {
			continue
		}
		if productIDs == nil || wanted[item.ProductID] {
			delete(d.cartItems, id)
		}
	}
}
