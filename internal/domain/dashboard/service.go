// internal/domain/dashboard/service.go
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

// LowStockThreshold is the stock level at or below which a published product
// counts as low on stock
const LowStockThreshold = 5

var ErrForbidden = apperror.New(apperror.KindForbidden, "admin access required")

// revenueStatuses are the order statuses counted as revenue
var revenueStatuses = []order.OrderStatus{order.OrderStatusProcessing, order.OrderStatusCompleted}

// Store answers the aggregate queries behind the dashboard
type Store interface {
	CountProducts(ctx context.Context, publishedOnly bool) (int64, error)
	CountLowStock(ctx context.Context, threshold int) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
	CountOrdersSince(ctx context.Context, since time.Time) (int64, error)
	SumRevenueSince(ctx context.Context, since time.Time, statuses []order.OrderStatus) (decimal.Decimal, error)
	CountOrdersByStatus(ctx context.Context) (map[order.OrderStatus]int64, error)
}

// Stats represents the admin dashboard figures
type Stats struct {
	TotalProducts     int64                       `json:"total_products"`
	PublishedProducts int64                       `json:"published_products"`
	LowStockProducts  int64                       `json:"low_stock_products"`
	TotalUsers        int64                       `json:"total_users"`
	OrdersThisMonth   int64                       `json:"orders_this_month"`
	RevenueThisMonth  decimal.Decimal             `json:"revenue_this_month"`
	OrdersByStatus    map[order.OrderStatus]int64 `json:"orders_by_status"`
	GeneratedAt       time.Time                   `json:"generated_at"`
}

// Service handles dashboard statistics
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new dashboard service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// GetStats gathers the dashboard figures. Admin only.
func (s *Service) GetStats(ctx context.Context, principal *auth.Principal) (*Stats, error) {
	if !principal.IsAdmin() {
		return nil, ErrForbidden
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	stats := &Stats{GeneratedAt: now}
	var err error

	if stats.TotalProducts, err = s.store.CountProducts(ctx, false); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if stats.PublishedProducts, err = s.store.CountProducts(ctx, true); err != nil {
		return nil, fmt.Errorf("failed to count published products: %w", err)
	}
	if stats.LowStockProducts, err = s.store.CountLowStock(ctx, LowStockThreshold); err != nil {
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}
	if stats.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.OrdersThisMonth, err = s.store.CountOrdersSince(ctx, monthStart); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if stats.RevenueThisMonth, err = s.store.SumRevenueSince(ctx, monthStart, revenueStatuses); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if stats.OrdersByStatus, err = s.store.CountOrdersByStatus(ctx); err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	for _, status := range order.AllStatuses() {
		if _, ok := stats.OrdersByStatus[status]; !ok {
			stats.OrdersByStatus[status] = 0
		}
	}

	return stats, nil
}
