// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a caster or accessory offered in the catalog
type Product struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	SKU              string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name             string          `gorm:"not null;size:255" json:"name"`
	Slug             string          `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description      string          `gorm:"type:text" json:"description"`
	Manufacturer     string          `gorm:"size:255" json:"manufacturer"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity    int             `gorm:"not null;default:0" json:"stock_quantity"`
	CategoryID       uint            `gorm:"not null;index" json:"category_id"`
	IsPublished      bool            `gorm:"not null;index" json:"is_published"`
	IsFeatured       bool            `gorm:"not null;default:false" json:"is_featured"`
	MainImage        string          `gorm:"size:500" json:"main_image"`
	AdditionalImages []string        `gorm:"serializer:json;type:text" json:"additional_images"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
}

// Category groups products in the catalog
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:255" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string    `gorm:"size:500" json:"description"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryWithCount is a category along with its published product count
type CategoryWithCount struct {
	Category
	ProductCount int64 `json:"product_count"`
}

func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// InStock reports whether quantity units can be taken from stock
func (p *Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}

// GenerateSlug builds a URL-friendly slug. Letters of any script are kept so
// Korean product names still produce readable slugs.
func GenerateSlug(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return "item"
	}
	return slug
}
