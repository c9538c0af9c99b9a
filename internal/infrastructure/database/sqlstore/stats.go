package sqlstore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/domain/dashboard"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/domain/user"
	"gorm.io/gorm"
)

// StatsStore implements dashboard.Store
type StatsStore struct {
	db *gorm.DB
}

var _ dashboard.Store = (*StatsStore)(nil)

func (s *StatsStore) CountProducts(ctx context.Context, publishedOnly bool) (int64, error) {
	query := s.db.WithContext(ctx).Model(&product.Product{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (s *StatsStore) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&product.Product{}).
		Where("is_published = ? AND stock_quantity <= ?", true, threshold).
		Count(&count).Error
	return count, err
}

func (s *StatsStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error
	return count, err
}

func (s *StatsStore) CountOrdersSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&order.Order{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

func (s *StatsStore) SumRevenueSince(ctx context.Context, since time.Time, statuses []order.OrderStatus) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("created_at >= ? AND status IN ?", since, statuses).
		Scan(&sum).Error
	return sum, err
}

func (s *StatsStore) CountOrdersByStatus(ctx context.Context) (map[order.OrderStatus]int64, error) {
	return countByStatus(s.db.WithContext(ctx))
}
