// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/domain/user"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// UserAdminHandler handles admin user management endpoints
type UserAdminHandler struct {
	userService *user.Service
}

// NewUserAdminHandler creates a new user admin handler
func NewUserAdminHandler(users *user.Service) *UserAdminHandler {
	return &UserAdminHandler{userService: users}
}

// GetUsers handles GET /admin/users
func (h *UserAdminHandler) GetUsers(c *gin.Context) {
	var req user.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.ListUsers(c.Request.Context(), middleware.PrincipalFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Users retrieved successfully", response)
}
