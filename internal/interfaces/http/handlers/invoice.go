// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
	"github.com/your-org/caster-store/internal/pkg/pdf"
)

// InvoiceGenerator renders an order as a PDF document
type InvoiceGenerator interface {
	GenerateInvoice(o *order.Order) (*bytes.Buffer, error)
}

// InvoiceHandler handles invoice-related endpoints
type InvoiceHandler struct {
	orderService *order.Service
	invoices     InvoiceGenerator
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(orders *order.Service, invoices InvoiceGenerator) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: orders,
		invoices:     invoices,
	}
}

// GenerateInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	id, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	// owner or admin only
	o, err := h.orderService.GetOrder(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBuffer, err := h.invoices.GenerateInvoice(o)
	if err != nil {
		respondError(c, fmt.Errorf("failed to generate invoice: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", pdf.InvoiceFilename(o)))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}
