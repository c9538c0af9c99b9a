package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderStore implements order.Store
type OrderStore struct {
	db *gorm.DB
}

var _ order.Store = (*OrderStore)(nil)

var forUpdate = clause.Locking{Strength: "UPDATE"}

// WithTx runs fn inside a database transaction
func (s *OrderStore) WithTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&orderTx{db: tx})
	})
}

func (s *OrderStore) GetOrder(ctx context.Context, id uint) (*order.Order, error) {
	var o order.Order
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("order_status_history.id ASC") }).
		First(&o, id).Error
	if err != nil {
		return nil, translate(err, order.ErrOrderNotFound, nil)
	}
	return &o, nil
}

func (s *OrderStore) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&order.Order{})

	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"LOWER(order_number) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?)",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Offset(pagination.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *OrderStore) CountByStatus(ctx context.Context) (map[order.OrderStatus]int64, error) {
	return countByStatus(s.db.WithContext(ctx))
}

func countByStatus(db *gorm.DB) (map[order.OrderStatus]int64, error) {
	var rows []struct {
		Status order.OrderStatus
		Count  int64
	}
	err := db.Model(&order.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[order.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type orderTx struct {
	db *gorm.DB
}

// LockProduct reads the product with SELECT ... FOR UPDATE
func (tx *orderTx) LockProduct(ctx context.Context, id uint) (*product.Product, error) {
	var p product.Product
	if err := tx.db.WithContext(ctx).Clauses(forUpdate).First(&p, id).Error; err != nil {
		return nil, translate(err, product.ErrProductNotFound, nil)
	}
	return &p, nil
}

// DecrementStock only updates when enough stock remains
func (tx *orderTx) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	res := tx.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		UpdateColumns(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", quantity),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrInsufficientStock
	}
	return nil
}

func (tx *orderTx) IncrementStock(ctx context.Context, productID uint, quantity int) error {
	res := tx.db.WithContext(ctx).
		Unscoped().
		Model(&product.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", quantity),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// CreateOrder inserts the order and its items
func (tx *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	return tx.db.WithContext(ctx).Omit("StatusHistory", "Items.Product").Create(o).Error
}

func (tx *orderTx) SetOrderNumber(ctx context.Context, id uint, number string) error {
	return tx.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", id).Update("order_number", number).Error
}

func (tx *orderTx) LockOrder(ctx context.Context, id uint) (*order.Order, error) {
	var o order.Order
	if err := tx.db.WithContext(ctx).Clauses(forUpdate).First(&o, id).Error; err != nil {
		return nil, translate(err, order.ErrOrderNotFound, nil)
	}
	if err := tx.db.WithContext(ctx).Where("order_id = ?", id).Order("id ASC").Find(&o.Items).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (tx *orderTx) SetStatus(ctx context.Context, id uint, status order.OrderStatus) error {
	return tx.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (tx *orderTx) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	return tx.db.WithContext(ctx).Create(h).Error
}

func (tx *orderTx) RemoveCartLines(ctx context.Context, owner cart.Owner, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	db := tx.db.WithContext(ctx)

	c, err := findCart(db, owner)
	if errors.Is(err, cart.ErrCartNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return db.Where("cart_id = ? AND product_id IN ?", c.ID, productIDs).Delete(&cart.CartItem{}).Error
}
