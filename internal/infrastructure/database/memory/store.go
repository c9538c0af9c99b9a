// internal/infrastructure/database/memory/store.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/domain/user"
)

// dataset holds every table as a map of values. Values are copied in and
// out so callers never share memory with the store.
type dataset struct {
	products   map[uint]product.Product
	categories map[uint]product.Category
	users      map[uint]user.User
	carts      map[uint]cart.Cart
	cartItems  map[uint]cart.CartItem
	orders     map[uint]order.Order
	orderItems map[uint]order.OrderItem
	history    map[uint]order.OrderStatusHistory
	notices    map[uint]notice.Notice
	seq        map[string]uint
}

func newDataset() *dataset {
	return &dataset{
		products:   map[uint]product.Product{},
		categories: map[uint]product.Category{},
		users:      map[uint]user.User{},
		carts:      map[uint]cart.Cart{},
		cartItems:  map[uint]cart.CartItem{},
		orders:     map[uint]order.Order{},
		orderItems: map[uint]order.OrderItem{},
		history:    map[uint]order.OrderStatusHistory{},
		notices:    map[uint]notice.Notice{},
		seq:        map[string]uint{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *dataset) clone() *dataset {
	return &dataset{
		products:   cloneMap(d.products),
		categories: cloneMap(d.categories),
		users:      cloneMap(d.users),
		carts:      cloneMap(d.carts),
		cartItems:  cloneMap(d.cartItems),
		orders:     cloneMap(d.orders),
		orderItems: cloneMap(d.orderItems),
		history:    cloneMap(d.history),
		notices:    cloneMap(d.notices),
		seq:        cloneMap(d.seq),
	}
}

func (d *dataset) nextID(table string) uint {
	d.seq[table]++
	return d.seq[table]
}

// DB is an in-process database used for development and tests. One mutex
// guards all tables; an order transaction holds it until it commits or
// rolls back, so transactions are serializable.
type DB struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

// New creates an empty in-memory database
func New() *DB {
	return &DB{data: newDataset(), now: time.Now}
}

// Products returns the product repository
func (db *DB) Products() *ProductRepository { return &ProductRepository{db: db} }

// Categories returns the category repository
func (db *DB) Categories() *CategoryRepository { return &CategoryRepository{db: db} }

// Carts returns the cart repository
func (db *DB) Carts() *CartRepository { return &CartRepository{db: db} }

// Orders returns the order store
func (db *DB) Orders() *OrderStore { return &OrderStore{db: db} }

// Users returns the user repository
func (db *DB) Users() *UserRepository { return &UserRepository{db: db} }

// Notices returns the notice repository
func (db *DB) Notices() *NoticeRepository { return &NoticeRepository{db: db} }

// Stats returns the dashboard store
func (db *DB) Stats() *StatsStore { return &StatsStore{db: db} }

// Ping always succeeds
func (db *DB) Ping(context.Context) error { return nil }

// Close is a no-op
func (db *DB) Close() error { return nil }

func (db *DB) read(fn func(d *dataset)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.data)
}

// write runs fn against a copy of the data and keeps it only if fn succeeds
func (db *DB) write(fn func(d *dataset) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.apply(fn)
}

func (db *DB) apply(fn func(d *dataset) error) error {
	draft := db.data.clone()
	if err := fn(draft); err != nil {
		return err
	}
	db.data = draft
	return nil
}

func (db *DB) timestamp() time.Time {
	return db.now().UTC()
}
