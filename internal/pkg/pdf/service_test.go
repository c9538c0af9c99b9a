package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/config"
	"github.com/your-org/caster-store/internal/domain/order"
)

func TestRenderInvoiceHTML(t *testing.T) {
	svc := NewService(&config.Config{App: config.AppConfig{
		CompanyName:  "Caster Store",
		CompanyEmail: "sales@example.com",
		CompanyPhone: "02-555-0100",
	}})
	svc.now = func() time.Time { return time.Date(2025, 4, 9, 10, 0, 0, 0, time.UTC) }

	o := &order.Order{
		OrderNumber:    "ORD-ABCDEFGH23",
		FullName:       "Jordan & Co",
		Email:          "jordan@example.com",
		Address:        "12 Factory Road",
		Status:         order.OrderStatusShipped,
		PaymentMethod:  order.PaymentMethodBank,
		ShippingMethod: order.ShippingMethodExpress,
		TotalAmount:    decimal.RequireFromString("25"),
		CreatedAt:      time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		Items: []order.OrderItem{{
			ProductName:  "Swivel Caster",
			ProductSKU:   "CS-100",
			ProductPrice: decimal.RequireFromString("12.5"),
			Quantity:     2,
			TotalPrice:   decimal.RequireFromString("25"),
		}},
	}

	html, err := svc.RenderInvoiceHTML(o)
	require.NoError(t, err)
	page := string(html)

	assert.Contains(t, page, "INV-ORD-ABCDEFGH23")
	assert.Contains(t, page, "April 9, 2025")
	assert.Contains(t, page, "April 1, 2025")
	assert.Contains(t, page, "Caster Store")
	assert.Contains(t, page, "Jordan &amp; Co")
	assert.Contains(t, page, "status-shipped")
	assert.Contains(t, page, "CS-100")
	assert.Contains(t, page, "12.50")
	assert.Contains(t, page, "25.00")
	assert.Contains(t, page, "express")

	assert.Equal(t, "invoice-ORD-ABCDEFGH23.pdf", InvoiceFilename(o))
}
