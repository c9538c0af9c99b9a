// internal/pkg/events/notifier.go
package events

import (
	"context"
	"fmt"
	"net/url"

	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/pkg/email"
)

var statusMessages = map[order.OrderStatus]string{
	order.OrderStatusProcessing: "We are preparing your order.",
	order.OrderStatusShipped:    "Your order is on its way.",
	order.OrderStatusDelivered:  "Your order has been delivered.",
	order.OrderStatusCompleted:  "Your order is complete. Thank you for shopping with us.",
	order.OrderStatusCancelled:  "Your order has been cancelled and any reserved stock released.",
}

// EmailNotifier mails the customer when an order is placed or changes status
type EmailNotifier struct {
	mailer  *email.EmailService
	siteURL string
}

// NewEmailNotifier creates a notifier that links back to siteURL
func NewEmailNotifier(mailer *email.EmailService, siteURL string) *EmailNotifier {
	return &EmailNotifier{mailer: mailer, siteURL: siteURL}
}

func (n *EmailNotifier) Publish(ctx context.Context, event order.Event) error {
	o := event.Order
	if o == nil || o.Email == "" {
		return nil
	}

	switch event.Type {
	case order.EventOrderCreated:
		data := email.OrderConfirmationData{
			OrderNumber:    o.OrderNumber,
			OrderDate:      o.CreatedAt.Format("2006-01-02"),
			OrderTotal:     o.TotalAmount.StringFixed(2),
			LookupURL:      n.lookupURL(o),
			ShippingMethod: string(o.ShippingMethod),
			PaymentMethod:  string(o.PaymentMethod),
			Address:        o.Address,
		}
		data.UserName = o.FullName
		data.UserEmail = o.Email
		for _, item := range o.Items {
			data.Items = append(data.Items, email.OrderItem{
				Name:     item.ProductName,
				SKU:      item.ProductSKU,
				Quantity: item.Quantity,
				Price:    item.ProductPrice.StringFixed(2),
				Total:    item.TotalPrice.StringFixed(2),
			})
		}
		return n.mailer.SendOrderConfirmationEmail(ctx, data)

	case order.EventOrderStatusChanged:
		data := email.OrderStatusUpdateData{
			OrderNumber:    o.OrderNumber,
			Status:         string(event.Status),
			PreviousStatus: string(event.PreviousStatus),
			StatusMessage:  statusMessages[event.Status],
			LookupURL:      n.lookupURL(o),
		}
		data.UserName = o.FullName
		data.UserEmail = o.Email
		return n.mailer.SendOrderStatusUpdateEmail(ctx, data)
	}

	return nil
}

func (n *EmailNotifier) lookupURL(o *order.Order) string {
	q := url.Values{}
	q.Set("order_number", o.OrderNumber)
	q.Set("email", o.Email)
	return fmt.Sprintf("%s/orders/lookup?%s", n.siteURL, q.Encode())
}
