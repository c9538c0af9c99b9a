// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

// Cart belongs to exactly one of an authenticated user or an anonymous session
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionID *string   `gorm:"uniqueIndex;size:100" json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// CartItem is one product line of a cart; (cart_id, product_id) is unique
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"product,omitempty"`
}

func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// Owner identifies whose cart an operation targets
type Owner struct {
	UserID    *uint
	SessionID string
}

// UserOwner returns the owner for an authenticated user
func UserOwner(userID uint) Owner {
	return Owner{UserID: &userID}
}

// SessionOwner returns the owner for an anonymous session
func SessionOwner(sessionID string) Owner {
	return Owner{SessionID: sessionID}
}

// Validate requires exactly one identity
func (o Owner) Validate() error {
	switch {
	case o.UserID != nil && o.SessionID != "":
		return apperror.Validation("cart owner must be a user or a session, not both")
	case o.UserID == nil && o.SessionID == "":
		return apperror.Validation("a user or session_id is required")
	}
	return nil
}

// IsUser reports whether the owner is an authenticated user
func (o Owner) IsUser() bool {
	return o.UserID != nil
}

// Line is a (product, quantity) pair taken from a cart
type Line struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CartItemResponse is a cart line joined with its live product
type CartItemResponse struct {
	ProductID     uint            `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	MainImage     string          `json:"main_image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
	StockQuantity int             `json:"stock_quantity"`
	InStock       bool            `json:"in_stock"`
	AddedAt       time.Time       `json:"added_at"`
}

// CartResponse is the rendered cart
type CartResponse struct {
	UserID        *uint              `json:"user_id,omitempty"`
	SessionID     string             `json:"session_id,omitempty"`
	Items         []CartItemResponse `json:"items"`
	ItemCount     int                `json:"item_count"`
	TotalQuantity int                `json:"total_quantity"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	AllInStock    bool               `json:"all_in_stock"`
}
