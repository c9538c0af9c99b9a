// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation, apperror.KindRule:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a classified error. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := statusFor(kind)

	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.FullPath(),
		}).Error("Request failed")
		_ = c.Error(err)
		c.JSON(status, gin.H{
			"error":   "Internal server error",
			"details": gin.H{"request_id": middleware.GetRequestID(c)},
		})
		return
	}

	body := gin.H{"error": err.Error()}

	var stockErr *product.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["details"] = gin.H{
			"product_id":   stockErr.ProductID,
			"product_name": stockErr.ProductName,
			"requested":    stockErr.Requested,
			"available":    stockErr.Available,
		}
	}

	c.JSON(status, body)
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label,
		})
		return 0, false
	}
	return uint(id), true
}
