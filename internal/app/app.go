// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/config"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/dashboard"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/infrastructure/database/memory"
	cache "github.com/your-org/caster-store/internal/infrastructure/database/redis"
	"github.com/your-org/caster-store/internal/infrastructure/database/sqlstore"
	apphttp "github.com/your-org/caster-store/internal/interfaces/http"
	"github.com/your-org/caster-store/internal/interfaces/http/handlers"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
	"github.com/your-org/caster-store/internal/interfaces/http/routes"
	"github.com/your-org/caster-store/internal/pkg/auth"
	"github.com/your-org/caster-store/internal/pkg/email"
	"github.com/your-org/caster-store/internal/pkg/events"
	"github.com/your-org/caster-store/internal/pkg/hashid"
	"github.com/your-org/caster-store/internal/pkg/pdf"
)

const orderNumberPrefix = "ORD-"

// storage is one adapter's implementation of every repository
type storage struct {
	products   product.Repository
	categories product.CategoryRepository
	carts      cart.Repository
	orders     order.Store
	users      user.Repository
	notices    notice.Repository
	stats      dashboard.Store
	pinger     apphttp.Pinger
}

// App owns the services and connections of one process
type App struct {
	Config *config.Config

	Products   *product.Service
	Categories *product.CategoryService
	Importer   *product.Importer
	Carts      *cart.Service
	Orders     *order.Service
	Users      *user.Service
	Notices    *notice.Service
	Dashboard  *dashboard.Service
	Invoices   *pdf.Service
	Tokens     *auth.JWTManager

	// Migration is nil for the memory driver
	Migration *sqlstore.Migration

	redis   *cache.Client
	storage *storage
	closers []func() error
}

// New connects to the configured backends and wires the services
func New(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	if err := a.openStorage(); err != nil {
		return nil, err
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewConnection(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
	}

	numbers, err := hashid.New(cfg.App.OrderHashSalt, orderNumberPrefix)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create order number encoder: %w", err)
	}

	s := a.storage
	a.Tokens = auth.NewJWTManager(cfg)
	a.Products = product.NewService(s.products, s.categories)
	a.Categories = product.NewCategoryService(s.categories)
	a.Importer = product.NewImporter(s.products, a.Categories, cfg.App.URL+"/images/products")
	a.Carts = cart.NewService(s.carts, s.products)
	a.Orders = order.NewService(s.orders, a.Carts, numbers, a.publisher())
	a.Users = user.NewService(s.users, auth.NewPasswordManager(cfg), a.Tokens)
	a.Notices = notice.NewService(s.notices)
	a.Dashboard = dashboard.NewService(s.stats)
	a.Invoices = pdf.NewService(cfg)

	return a, nil
}

func (a *App) openStorage() error {
	cfg := a.Config

	if cfg.Database.Driver == config.DriverMemory {
		db := memory.New()
		a.storage = &storage{
			products:   db.Products(),
			categories: db.Categories(),
			carts:      db.Carts(),
			orders:     db.Orders(),
			users:      db.Users(),
			notices:    db.Notices(),
			stats:      db.Stats(),
			pinger:     db,
		}
		a.closers = append(a.closers, db.Close)
		logrus.Warn("Using in-memory storage; data is lost on exit")
		return nil
	}

	conn, err := sqlstore.NewConnection(cfg)
	if err != nil {
		return err
	}
	store := sqlstore.New(conn.GetDB())
	a.storage = &storage{
		products:   store.Products(),
		categories: store.Categories(),
		carts:      store.Carts(),
		orders:     store.Orders(),
		users:      store.Users(),
		notices:    store.Notices(),
		stats:      store.Stats(),
		pinger:     conn,
	}
	a.Migration = sqlstore.NewMigration(conn.GetDB())
	a.closers = append(a.closers, conn.Close)
	return nil
}

// publisher fans order events out to Kafka and email when configured.
// Delivery runs off the request path.
func (a *App) publisher() order.EventPublisher {
	cfg := a.Config

	var fanout events.Fanout
	if cfg.KafkaEnabled() {
		writer := events.NewKafkaWriter(cfg.Kafka)
		fanout = append(fanout, events.NewKafkaPublisher(writer))
		a.closers = append(a.closers, writer.Close)
		logrus.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("Publishing order events to Kafka")
	}
	if cfg.Email.Enabled {
		mailer := email.NewEmailService(email.NewSMTPSender(cfg.Email), cfg.App.Name, cfg.App.URL)
		fanout = append(fanout, events.NewEmailNotifier(mailer, cfg.App.URL))
	}

	if len(fanout) == 0 {
		return nil
	}

	async := events.NewAsync(fanout, events.DefaultQueueSize)
	a.closers = append(a.closers, async.Close)
	return async
}

// Migrate creates or updates the schema. It is a no-op in memory.
func (a *App) Migrate(fresh bool) error {
	if a.Migration == nil {
		return nil
	}
	if fresh {
		if a.Config.IsProduction() {
			return errors.New("refusing to drop tables in production")
		}
		if err := a.Migration.DropAllTables(); err != nil {
			return err
		}
	}
	if err := a.Migration.RunAutoMigrations(); err != nil {
		return err
	}
	if err := a.Migration.CreateIndexes(); err != nil {
		logrus.WithError(err).Warn("Index creation incomplete")
	}
	return nil
}

// Seed loads the starter catalog and ensures the admin account exists
func (a *App) Seed(ctx context.Context) error {
	if err := a.seedCatalog(ctx); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	if a.Config.App.AdminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}
	_, err := a.Users.EnsureAdmin(ctx, a.Config.App.AdminEmail, a.Config.App.AdminPassword)
	return err
}

// Server builds the HTTP server over the wired services
func (a *App) Server() *apphttp.Server {
	cfg := a.Config

	h := &routes.Handlers{
		Auth:      handlers.NewAuthHandler(a.Users, a.Carts),
		Product:   handlers.NewProductHandler(a.Products, a.Importer),
		Category:  handlers.NewCategoryHandler(a.Categories),
		Cart:      handlers.NewCartHandler(a.Carts),
		Order:     handlers.NewOrderHandler(a.Orders),
		Invoice:   handlers.NewInvoiceHandler(a.Orders, a.Invoices),
		Notice:    handlers.NewNoticeHandler(a.Notices),
		Dashboard: handlers.NewDashboardHandler(a.Dashboard),
		UserAdmin: handlers.NewUserAdminHandler(a.Users),
	}

	opts := apphttp.Options{
		Options: routes.Options{
			Tokens:         a.Tokens,
			LoginLimit:     cfg.Security.LoginRatePerMinute,
			IdempotencyTTL: cfg.Redis.IdempotencyTTL,
		},
		Checks: map[string]apphttp.Pinger{"database": a.storage.pinger},
	}

	if a.redis != nil {
		opts.Limiter = middleware.NewRedisLimiter(a.redis, "rate_limit", cfg.Security.RateLimitPerMinute, time.Minute)
		opts.LoginLimiter = middleware.NewRedisLimiter(a.redis, "login_limit", cfg.Security.LoginRatePerMinute, time.Minute)
		opts.Idempotency = a.redis
		opts.Checks["redis"] = a.redis
	} else {
		opts.Limiter = middleware.NewLocalLimiter(cfg.Security.RateLimitPerMinute, cfg.Security.RateLimitBurst)
		opts.LoginLimiter = middleware.NewLocalLimiter(cfg.Security.LoginRatePerMinute, cfg.Security.LoginRatePerMinute)
	}

	return apphttp.NewServer(cfg, h, opts)
}

// Close releases connections in reverse order of opening
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
