// internal/infrastructure/database/sqlstore/migration.go
package sqlstore

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/domain/user"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{db: db}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	logrus.Info("Running database auto-migrations")

	// dependency order
	models := []any{
		&user.User{},
		&product.Category{},
		&product.Product{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
		&notice.Notice{},
	}

	for _, model := range models {
		logrus.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	logrus.Info("Database auto-migrations completed")
	return nil
}

type index struct {
	table   string
	name    string
	columns string
}

// CreateIndexes creates the composite indexes the list queries rely on.
// Existing indexes are skipped, which keeps the statements portable between
// PostgreSQL and MySQL.
func (m *Migration) CreateIndexes() error {
	indexes := []index{
		{"products", "idx_products_category_published", "category_id, is_published"},
		{"products", "idx_products_featured", "is_featured, is_published"},
		{"products", "idx_products_price", "price"},
		{"products", "idx_products_created_at", "created_at"},
		{"categories", "idx_categories_sort_order", "sort_order, name"},
		{"orders", "idx_orders_user_status", "user_id, status"},
		{"orders", "idx_orders_status_created", "status, created_at"},
		{"orders", "idx_orders_created_at", "created_at"},
		{"order_status_history", "idx_order_status_history_order", "order_id, created_at"},
		{"notices", "idx_notices_pinned_created", "is_pinned, created_at"},
	}

	created, failed := 0, 0
	for _, idx := range indexes {
		if m.db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := m.db.Exec(sql).Error; err != nil {
			logrus.WithError(err).WithField("index", idx.name).Warn("Failed to create index")
			failed++
			continue
		}
		created++
	}

	logrus.WithFields(logrus.Fields{"created": created, "failed": failed}).Info("Database indexes checked")
	if failed > 0 {
		return fmt.Errorf("%d indexes could not be created", failed)
	}
	return nil
}

// DropAllTables drops every table. Development only.
func (m *Migration) DropAllTables() error {
	tables := []any{
		&notice.Notice{},
		&order.OrderStatusHistory{},
		&order.OrderItem{},
		&order.Order{},
		&cart.CartItem{},
		&cart.Cart{},
		&product.Product{},
		&product.Category{},
		&user.User{},
	}
	for _, table := range tables {
		if err := m.db.Migrator().DropTable(table); err != nil {
			return fmt.Errorf("failed to drop %T: %w", table, err)
		}
	}
	return nil
}
