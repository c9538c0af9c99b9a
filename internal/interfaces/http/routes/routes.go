// internal/interfaces/http/routes/routes.go
package routes

import (
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/interfaces/http/handlers"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

// Handlers groups every API handler
type Handlers struct {
	Auth      *handlers.AuthHandler
	Product   *handlers.ProductHandler
	Category  *handlers.CategoryHandler
	Cart      *handlers.CartHandler
	Order     *handlers.OrderHandler
	Invoice   *handlers.InvoiceHandler
	Notice    *handlers.NoticeHandler
	Dashboard *handlers.DashboardHandler
	UserAdmin *handlers.UserAdminHandler
}

// Options carries the cross-cutting pieces routes need
type Options struct {
	Tokens *auth.JWTManager
	// LoginLimiter throttles credential guessing; nil disables it
	LoginLimiter middleware.Limiter
	LoginLimit   int
	// Idempotency is nil when Redis is disabled
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration
}

// SetupRoutes registers the v1 API
func SetupRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	SetupAuthRoutes(rg, h, opts)
	SetupCatalogRoutes(rg, h)
	SetupCartRoutes(rg, h, opts)
	SetupOrderRoutes(rg, h, opts)
	SetupNoticeRoutes(rg, h)
	SetupAdminRoutes(rg, h, opts)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	authGroup := rg.Group("/auth")
	{
		credentials := []gin.HandlerFunc{}
		if opts.LoginLimiter != nil {
			credentials = append(credentials, middleware.RateLimit(opts.LoginLimiter, opts.LoginLimit))
		}

		authGroup.POST("/register", append(slices.Clip(credentials), h.Auth.Register)...)
		authGroup.POST("/login", append(slices.Clip(credentials), h.Auth.Login)...)
		authGroup.POST("/refresh", h.Auth.RefreshToken)

		authGroup.GET("/me", middleware.AuthMiddleware(opts.Tokens), h.Auth.GetProfile)
	}
}

// SetupCatalogRoutes sets up product and category routes
func SetupCatalogRoutes(rg *gin.RouterGroup, h *Handlers) {
	products := rg.Group("/products")
	{
		products.GET("", h.Product.GetProducts)
		products.GET("/:id", h.Product.GetProduct)
		products.GET("/slug/:slug", h.Product.GetProductBySlug)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", h.Category.GetCategories)
		categories.GET("/:slug", h.Category.GetCategoryBySlug)
	}
}

// SetupCartRoutes sets up cart routes. Carts work for guests and users.
func SetupCartRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	cart := rg.Group("/cart")
	cart.Use(middleware.OptionalAuthMiddleware(opts.Tokens))
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PUT("/items/:product_id", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:product_id", h.Cart.RemoveFromCart)
		cart.DELETE("", h.Cart.ClearCart)
	}
}

// SetupOrderRoutes sets up order related routes
func SetupOrderRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	orders := rg.Group("/orders")
	{
		checkout := []gin.HandlerFunc{middleware.OptionalAuthMiddleware(opts.Tokens)}
		if opts.Idempotency != nil {
			checkout = append(checkout, middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL))
		}
		orders.POST("", append(slices.Clip(checkout), h.Order.CreateOrder)...)
		orders.GET("/lookup", h.Order.LookupOrder)

		protected := orders.Group("")
		protected.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			protected.GET("", h.Order.GetOrders)
			protected.GET("/:id", h.Order.GetOrder)
			protected.POST("/:id/cancel", h.Order.CancelOrder)
			protected.GET("/:id/invoice", h.Invoice.GenerateInvoice)
		}
	}
}

// SetupNoticeRoutes sets up the public notice board
func SetupNoticeRoutes(rg *gin.RouterGroup, h *Handlers) {
	notices := rg.Group("/notices")
	{
		notices.GET("", h.Notice.GetNotices)
		notices.GET("/:id", h.Notice.GetNotice)
	}
}

// SetupAdminRoutes sets up admin related routes
func SetupAdminRoutes(rg *gin.RouterGroup, h *Handlers, opts Options) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(opts.Tokens))
	admin.Use(middleware.AdminMiddleware())
	{
		orders := admin.Group("/orders")
		{
			orders.GET("", h.Order.AdminGetOrders)
			orders.GET("/:id", h.Order.GetOrder)
			orders.PUT("/:id/status", h.Order.AdminUpdateOrderStatus)
		}

		products := admin.Group("/products")
		{
			products.GET("", h.Product.AdminGetProducts)
			products.GET("/:id", h.Product.AdminGetProduct)
			products.POST("", h.Product.AdminCreateProduct)
			products.PUT("/:id", h.Product.AdminUpdateProduct)
			products.DELETE("/:id", h.Product.AdminDeleteProduct)
			products.PATCH("/:id/stock", h.Product.AdminUpdateStock)
			products.POST("/import", h.Product.AdminImportProducts)
		}

		admin.POST("/categories", h.Category.AdminCreateCategory)

		notices := admin.Group("/notices")
		{
			notices.POST("", h.Notice.AdminCreateNotice)
			notices.PUT("/:id", h.Notice.AdminUpdateNotice)
			notices.DELETE("/:id", h.Notice.AdminDeleteNotice)
			notices.PATCH("/:id/pin", h.Notice.AdminTogglePin)
		}

		admin.GET("/users", h.UserAdmin.GetUsers)
		admin.GET("/stats", h.Dashboard.GetStats)
	}
}
