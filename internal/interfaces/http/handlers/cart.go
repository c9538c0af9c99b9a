// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

const SessionHeader = "X-Session-ID"

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{cartService: carts}
}

// requestSessionID reads the anonymous session from the header or query
func requestSessionID(c *gin.Context) string {
	if sessionID := strings.TrimSpace(c.GetHeader(SessionHeader)); sessionID != "" {
		return sessionID
	}
	return strings.TrimSpace(c.Query("session_id"))
}

// cartOwner resolves the cart owner. Anonymous callers without a session
// get a new one, echoed back in the X-Session-ID header.
func cartOwner(c *gin.Context) cart.Owner {
	if userID, ok := middleware.GetUserIDFromContext(c); ok {
		return cart.UserOwner(userID)
	}

	sessionID := requestSessionID(c)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c.Header(SessionHeader, sessionID)
	return cart.SessionOwner(sessionID)
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cartResponse, err := h.cartService.GetCart(c.Request.Context(), cartOwner(c))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart retrieved successfully", cartResponse)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	owner := cartOwner(c)

	var req cart.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cartResponse, err := h.cartService.AddItem(c.Request.Context(), owner, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Item added to cart successfully", cartResponse)
}

// UpdateCartItem handles PUT /cart/items/:product_id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	owner := cartOwner(c)

	productID, ok := parseID(c, "product_id", "product ID")
	if !ok {
		return
	}

	var req cart.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	cartResponse, err := h.cartService.UpdateItem(c.Request.Context(), owner, productID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart item updated successfully", cartResponse)
}

// RemoveFromCart handles DELETE /cart/items/:product_id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	owner := cartOwner(c)

	productID, ok := parseID(c, "product_id", "product ID")
	if !ok {
		return
	}

	cartResponse, err := h.cartService.RemoveItem(c.Request.Context(), owner, productID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Item removed from cart successfully", cartResponse)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Request.Context(), cartOwner(c)); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Cart cleared successfully", nil)
}
