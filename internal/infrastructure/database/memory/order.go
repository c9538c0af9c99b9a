package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// OrderStore implements order.Store
type OrderStore struct {
	db *DB
}

var _ order.Store = (*OrderStore)(nil)

// WithTx runs fn against a private copy of the data while holding the
// database lock. The copy replaces the live data only when fn succeeds.
func (s *OrderStore) WithTx(ctx context.Context, fn func(tx order.Tx) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.apply(func(d *dataset) error {
		return fn(&orderTx{db: s.db, d: d})
	})
}

func (d *dataset) loadOrder(id uint, withHistory bool) (order.Order, bool) {
	o, ok := d.orders[id]
	if !ok {
		return order.Order{}, false
	}

	o.Items = []order.OrderItem{}
	for _, item := range d.orderItems {
		if item.OrderID == id {
			o.Items = append(o.Items, item)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })

	o.StatusHistory = nil
	if withHistory {
		for _, h := range d.history {
			if h.OrderID == id {
				o.StatusHistory = append(o.StatusHistory, h)
			}
		}
		sort.Slice(o.StatusHistory, func(i, j int) bool { return o.StatusHistory[i].ID < o.StatusHistory[j].ID })
	}
	return o, true
}

func (s *OrderStore) GetOrder(ctx context.Context, id uint) (*order.Order, error) {
	var (
		o  order.Order
		ok bool
	)
	s.db.read(func(d *dataset) { o, ok = d.loadOrder(id, true) })
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func matchesOrder(o order.Order, f order.ListFilter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(strings.Join([]string{o.OrderNumber, o.Email, o.FullName}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func (s *OrderStore) ListOrders(ctx context.Context, f order.ListFilter) ([]order.Order, int64, error) {
	var out []order.Order
	s.db.read(func(d *dataset) {
		for id, o := range d.orders {
			if !matchesOrder(o, f) {
				continue
			}
			full, _ := d.loadOrder(id, false)
			out = append(out, full)
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	total := int64(len(out))
	start, end := pagination.Window(f.Page, f.Limit, len(out))
	return out[start:end], total, nil
}

func (s *OrderStore) CountByStatus(ctx context.Context) (map[order.OrderStatus]int64, error) {
	counts := map[order.OrderStatus]int64{}
	s.db.read(func(d *dataset) {
		for _, o := range d.orders {
			counts[o.Status]++
		}
	})
	return counts, nil
}

type orderTx struct {
	db *DB
	d  *dataset
}

func (tx *orderTx) LockProduct(ctx context.Context, id uint) (*product.Product, error) {
	p, ok := tx.d.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	p = tx.d.withCategory(p)
	return &p, nil
}

func (tx *orderTx) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	p, ok := tx.d.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.StockQuantity < quantity {
		return product.ErrInsufficientStock
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = tx.db.timestamp()
	tx.d.products[productID] = p
	return nil
}

func (tx *orderTx) IncrementStock(ctx context.Context, productID uint, quantity int) error {
	p, ok := tx.d.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	p.StockQuantity += quantity
	p.UpdatedAt = tx.db.timestamp()
	tx.d.products[productID] = p
	return nil
}

func (tx *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	now := tx.db.timestamp()
	o.ID = tx.d.nextID("orders")
	o.CreatedAt, o.UpdatedAt = now, now

	for i := range o.Items {
		o.Items[i].ID = tx.d.nextID("order_items")
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt = now
		stored := o.Items[i]
		stored.Product = nil
		tx.d.orderItems[stored.ID] = stored
	}

	stored := *o
	stored.Items = nil
	stored.StatusHistory = nil
	tx.d.orders[o.ID] = stored
	return nil
}

func (tx *orderTx) SetOrderNumber(ctx context.Context, id uint, number string) error {
	o, ok := tx.d.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.OrderNumber = number
	tx.d.orders[id] = o
	return nil
}

func (tx *orderTx) LockOrder(ctx context.Context, id uint) (*order.Order, error) {
	o, ok := tx.d.loadOrder(id, false)
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (tx *orderTx) SetStatus(ctx context.Context, id uint, status order.OrderStatus) error {
	o, ok := tx.d.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = tx.db.timestamp()
	tx.d.orders[id] = o
	return nil
}

func (tx *orderTx) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	h.ID = tx.d.nextID("order_status_history")
	h.CreatedAt = tx.db.timestamp()
	tx.d.history[h.ID] = *h
	return nil
}

func (tx *orderTx) RemoveCartLines(ctx context.Context, owner cart.Owner, productIDs []uint) error {
	c, ok := tx.d.findCart(owner)
	if !ok || len(productIDs) == 0 {
		return nil
	}
	tx.d.clearCartItems(c.ID, productIDs)
	return nil
}
