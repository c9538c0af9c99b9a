package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/domain/dashboard"
	"github.com/your-org/caster-store/internal/domain/order"
)

// StatsStore implements dashboard.Store
type StatsStore struct {
	db *DB
}

var _ dashboard.Store = (*StatsStore)(nil)

func (s *StatsStore) CountProducts(ctx context.Context, publishedOnly bool) (int64, error) {
	var n int64
	s.db.read(func(d *dataset) {
		for _, p := range d.products {
			if !publishedOnly || p.IsPublished {
				n++
			}
		}
	})
	return n, nil
}

func (s *StatsStore) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	s.db.read(func(d *dataset) {
		for _, p := range d.products {
			if p.IsPublished && p.StockQuantity <= threshold {
				n++
			}
		}
	})
	return n, nil
}

func (s *StatsStore) CountUsers(ctx context.Context) (int64, error) {
	return s.db.Users().Count(ctx)
}

func (s *StatsStore) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	s.db.read(func(d *dataset) {
		for _, o := range d.orders {
			if !o.CreatedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}

func (s *StatsStore) SumRevenueSince(ctx context.Context, since time.Time, statuses []order.OrderStatus) (decimal.Decimal, error) {
	wanted := make(map[order.OrderStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	sum := decimal.Zero
	s.db.read(func(d *dataset) {
		for _, o := range d.orders {
			if wanted[o.Status] && !o.CreatedAt.Before(since) {
				sum = sum.Add(o.TotalAmount)
			}
		}
	})
	return sum, nil
}

func (s *StatsStore) CountOrdersByStatus(ctx context.Context) (map[order.OrderStatus]int64, error) {
	return s.db.Orders().CountByStatus(ctx)
}
