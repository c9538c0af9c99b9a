// internal/domain/order/entity.go
package order

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/domain/product"
)

// PaymentMethod is how the customer intends to pay
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodBank PaymentMethod = "bank"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodBank
}

// ShippingMethod is the requested delivery speed
type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingMethodStandard || m == ShippingMethodExpress
}

// Order represents the order entity. Everything except Status is fixed at
// checkout.
type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"index;size:50" json:"order_number"`
	UserID         *uint           `gorm:"index" json:"user_id"`
	SessionID      string          `gorm:"size:100;index" json:"-"`
	Email          string          `gorm:"not null;size:255;index" json:"email"`
	FullName       string          `gorm:"not null;size:255" json:"full_name"`
	Phone          string          `gorm:"not null;size:50" json:"phone"`
	Address        string          `gorm:"not null;type:text" json:"address"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_amount"`
	Status         OrderStatus     `gorm:"not null;size:20;default:'pending';index" json:"status"`
	PaymentMethod  PaymentMethod   `gorm:"not null;size:20" json:"payment_method"`
	ShippingMethod ShippingMethod  `gorm:"not null;size:20" json:"shipping_method"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a snapshot of a product line at checkout time
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"order_id"`
	ProductID    uint            `gorm:"not null;index" json:"product_id"`
	ProductName  string          `gorm:"not null;size:255" json:"product_name"`
	ProductSKU   string          `gorm:"size:100" json:"product_sku"`
	ProductPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"product_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_price"`
	CreatedAt    time.Time       `json:"created_at"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"size:20" json:"from_status,omitempty"`
	Status     OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment    string      `gorm:"type:text" json:"comment"`
	CreatedBy  *uint       `gorm:"index" json:"created_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// ComputedTotal sums the line totals
func (o *Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// ProductIDs returns the distinct products on the order
func (o *Order) ProductIDs() []uint {
	seen := make(map[uint]bool, len(o.Items))
	ids := make([]uint, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
