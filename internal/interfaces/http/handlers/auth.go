// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService *user.Service
	cartService *cart.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *user.Service, carts *cart.Service) *AuthHandler {
	return &AuthHandler{
		userService: users,
		cartService: carts,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.mergeGuestCart(c, requestSessionID(c), response.User.ID)

	respondOK(c, http.StatusCreated, "User registered successfully", response)
}

// Login handles POST /auth/login. A guest cart named by session_id or the
// X-Session-ID header is merged into the user's cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = requestSessionID(c)
	}
	h.mergeGuestCart(c, sessionID, response.User.ID)

	respondOK(c, http.StatusOK, "Login successful", response)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Token refreshed successfully", response)
}

// GetProfile handles GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// mergeGuestCart never fails the login itself
func (h *AuthHandler) mergeGuestCart(c *gin.Context, sessionID string, userID uint) {
	if sessionID == "" {
		return
	}
	if err := h.cartService.MergeGuestCart(c.Request.Context(), sessionID, userID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"user_id":    userID,
		}).Warn("Failed to merge guest cart")
	}
}
