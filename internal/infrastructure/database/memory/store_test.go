package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
)

func seedProduct(t *testing.T, db *DB, stock int) *product.Product {
	t.Helper()
	ctx := context.Background()
	c := &product.Category{Name: "Casters", Slug: "casters", IsActive: true}
	require.NoError(t, db.Categories().Create(ctx, c))
	p := &product.Product{
		SKU: "M-1", Name: "Caster", Slug: "caster",
		Price:            decimal.NewFromInt(3),
		StockQuantity:    stock,
		CategoryID:       c.ID,
		IsPublished:      true,
		AdditionalImages: []string{"a.jpg"},
	}
	require.NoError(t, db.Products().Create(ctx, p))
	return p
}

func TestReadsReturnCopies(t *testing.T) {
	db := New()
	p := seedProduct(t, db, 5)
	ctx := context.Background()

	got, err := db.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	got.StockQuantity = 0
	got.AdditionalImages[0] = "changed.jpg"

	again, err := db.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.StockQuantity)
	assert.Equal(t, []string{"a.jpg"}, again.AdditionalImages)
	require.NotNil(t, again.Category)
	assert.Equal(t, "casters", again.Category.Slug)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := New()
	p := seedProduct(t, db, 5)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Orders().WithTx(ctx, func(tx order.Tx) error {
		require.NoError(t, tx.DecrementStock(ctx, p.ID, 3))
		require.NoError(t, tx.CreateOrder(ctx, &order.Order{Status: order.OrderStatusPending}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := db.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)

	counts, err := db.Orders().CountByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestWithTxCommits(t *testing.T) {
	db := New()
	p := seedProduct(t, db, 5)
	ctx := context.Background()

	owner := cart.SessionOwner("s")
	c, err := db.Carts().GetOrCreateCart(ctx, owner)
	require.NoError(t, err)
	require.NoError(t, db.Carts().SaveItem(ctx, &cart.CartItem{CartID: c.ID, ProductID: p.ID, Quantity: 2}))

	var id uint
	err = db.Orders().WithTx(ctx, func(tx order.Tx) error {
		if err := tx.DecrementStock(ctx, p.ID, 6); !errors.Is(err, product.ErrInsufficientStock) {
			return errors.New("expected insufficient stock")
		}
		if err := tx.DecrementStock(ctx, p.ID, 2); err != nil {
			return err
		}
		o := &order.Order{Status: order.OrderStatusPending, Items: []order.OrderItem{{ProductID: p.ID, Quantity: 2}}}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		id = o.ID
		if err := tx.SetOrderNumber(ctx, o.ID, "ORD-TEST"); err != nil {
			return err
		}
		if err := tx.AddHistory(ctx, &order.OrderStatusHistory{OrderID: o.ID, Status: order.OrderStatusPending}); err != nil {
			return err
		}
		return tx.RemoveCartLines(ctx, owner, []uint{p.ID})
	})
	require.NoError(t, err)

	got, err := db.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)

	o, err := db.Orders().GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ORD-TEST", o.OrderNumber)
	assert.Len(t, o.Items, 1)
	assert.Len(t, o.StatusHistory, 1)

	items, err := db.Carts().ListItems(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	assert.ErrorIs(t, db.Products().Delete(ctx, p.ID), product.ErrProductInUse)
}

func TestWithTxHonorsCancelledContext(t *testing.T) {
	db := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := db.Orders().WithTx(ctx, func(order.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestOrderListingNewestFirst(t *testing.T) {
	db := New()
	ctx := context.Background()

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for i := 0; i < 3; i++ {
		err := db.Orders().WithTx(ctx, func(tx order.Tx) error {
			return tx.CreateOrder(ctx, &order.Order{Status: order.OrderStatusPending, Email: "x@example.com"})
		})
		require.NoError(t, err)
	}

	orders, total, err := db.Orders().ListOrders(ctx, order.ListFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 2)
	assert.Equal(t, uint(3), orders[0].ID)
	assert.Equal(t, uint(2), orders[1].ID)
}
