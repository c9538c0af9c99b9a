// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orderService: orders}
}

// LookupRequest identifies a guest order
type LookupRequest struct {
	OrderNumber string `form:"order_number" binding:"required"`
	Email       string `form:"email" binding:"required,email"`
}

// CreateOrder handles POST /orders. Guests identify their cart with a
// session id.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req order.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	principal := middleware.PrincipalFromContext(c)
	if principal == nil && req.SessionID == "" {
		req.SessionID = requestSessionID(c)
	}

	createdOrder, err := h.orderService.PlaceOrder(c.Request.Context(), principal, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Order created successfully", createdOrder)
}

// LookupOrder handles GET /orders/lookup
func (h *OrderHandler) LookupOrder(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "order_number and email are required",
			"details": err.Error(),
		})
		return
	}

	o, err := h.orderService.GetOrderByNumber(c.Request.Context(), req.OrderNumber, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// GetOrders handles GET /orders (caller's own orders)
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var req order.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.ListUserOrders(c.Request.Context(), middleware.PrincipalFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// GetOrder handles GET /orders/:id and GET /admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order retrieved successfully", o)
}

// CancelOrder handles POST /orders/:id/cancel. The body is optional.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	o, err := h.orderService.CancelOrder(c.Request.Context(), middleware.PrincipalFromContext(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order cancelled successfully", o)
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.ListOrders(c.Request.Context(), middleware.PrincipalFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Orders retrieved successfully", response)
}

// AdminUpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id", "order ID")
	if !ok {
		return
	}

	var req order.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), middleware.PrincipalFromContext(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Order status updated successfully", o)
}
