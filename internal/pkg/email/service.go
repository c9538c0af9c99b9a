// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
)

// EmailService renders and sends customer notifications
type EmailService struct {
	sender    Sender
	siteName  string
	siteURL   string
	templates map[string]*template.Template
}

// NewEmailService creates a new email service
func NewEmailService(sender Sender, siteName, siteURL string) *EmailService {
	return &EmailService{
		sender:   sender,
		siteName: siteName,
		siteURL:  siteURL,
		templates: map[string]*template.Template{
			"order_confirmation":  template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
			"order_status_update": template.Must(template.New("order_status_update").Parse(orderStatusUpdateTemplate)),
		},
	}
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.siteName, s.siteURL, data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate("order_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	})
}

// SendOrderStatusUpdateEmail sends order status update email
func (s *EmailService) SendOrderStatusUpdateEmail(ctx context.Context, data OrderStatusUpdateData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.siteName, s.siteURL, data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate("order_status_update", data)
	if err != nil {
		return fmt.Errorf("failed to render order status template: %w", err)
	}

	return s.sender.Send(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order %s is now %s", data.OrderNumber, data.Status),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderStatusUpdate,
	})
}

func (s *EmailService) renderTemplate(templateName string, data any) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

const layoutStart = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
<div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
<h1 style="color: #333;">{{.SiteName}}</h1>
<p>Hello {{.UserName}},</p>
`

const layoutEnd = `<hr>
<p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
</div>
</body>
</html>`

const orderConfirmationTemplate = layoutStart + `
<p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
<table style="width: 100%; border-collapse: collapse;">
<tr><th align="left">Item</th><th align="left">SKU</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.SKU}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Total}}</td></tr>
{{end}}</table>
<p><strong>Order total: {{.OrderTotal}}</strong></p>
<p>Payment: {{.PaymentMethod}}<br>Shipping: {{.ShippingMethod}}<br>Deliver to: {{.Address}}</p>
<p>You can check your order at <a href="{{.LookupURL}}">{{.LookupURL}}</a>.</p>
` + layoutEnd

const orderStatusUpdateTemplate = layoutStart + `
<p>Your order <strong>{{.OrderNumber}}</strong> changed from {{.PreviousStatus}} to <strong>{{.Status}}</strong>.</p>
<p>{{.StatusMessage}}</p>
<p>You can check your order at <a href="{{.LookupURL}}">{{.LookupURL}}</a>.</p>
` + layoutEnd
