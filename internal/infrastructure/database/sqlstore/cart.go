package sqlstore

import (
	"context"
	"errors"

	"github.com/your-org/caster-store/internal/domain/cart"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository implements cart.Repository
type CartRepository struct {
	db *gorm.DB
}

var _ cart.Repository = (*CartRepository)(nil)

func ownerScope(owner cart.Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != nil {
			return db.Where("user_id = ?", *owner.UserID)
		}
		return db.Where("session_id = ?", owner.SessionID)
	}
}

func findCart(db *gorm.DB, owner cart.Owner) (*cart.Cart, error) {
	var c cart.Cart
	if err := db.Scopes(ownerScope(owner)).First(&c).Error; err != nil {
		return nil, translate(err, cart.ErrCartNotFound, nil)
	}
	return &c, nil
}

func (r *CartRepository) FindCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	return findCart(r.db.WithContext(ctx), owner)
}

func (r *CartRepository) GetOrCreateCart(ctx context.Context, owner cart.Owner) (*cart.Cart, error) {
	db := r.db.WithContext(ctx)

	c, err := findCart(db, owner)
	if !errors.Is(err, cart.ErrCartNotFound) {
		return c, err
	}

	c = &cart.Cart{}
	if owner.UserID != nil {
		userID := *owner.UserID
		c.UserID = &userID
	} else {
		sessionID := owner.SessionID
		c.SessionID = &sessionID
	}

	err = db.Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// created concurrently by another request
		return findCart(db, owner)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uint) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Category").
		Where("cart_id = ?", cartID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *CartRepository) GetItem(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var item cart.CartItem
	err := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if err != nil {
		return nil, translate(err, cart.ErrItemNotFound, nil)
	}
	return &item, nil
}

// SaveItem upserts on (cart_id, product_id)
func (r *CartRepository) SaveItem(ctx context.Context, item *cart.CartItem) error {
	db := r.db.WithContext(ctx).Omit("Product")
	if item.ID != 0 {
		return db.Save(item).Error
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(item).Error
}

func (r *CartRepository) DeleteItem(ctx context.Context, cartID, productID uint) error {
	res := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&cart.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&cart.CartItem{}).Error
}

func (r *CartRepository) DeleteCart(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cart.Cart{}, cartID).Error
	})
}
