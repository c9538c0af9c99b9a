package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// NoticeHandler handles notice board endpoints
type NoticeHandler struct {
	noticeService *notice.Service
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(notices *notice.Service) *NoticeHandler {
	return &NoticeHandler{noticeService: notices}
}

// GetNotices handles GET /notices
func (h *NoticeHandler) GetNotices(c *gin.Context) {
	var req notice.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.noticeService.ListNotices(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Notices retrieved successfully", response)
}

// GetNotice handles GET /notices/:id
func (h *NoticeHandler) GetNotice(c *gin.Context) {
	id, ok := parseID(c, "id", "notice ID")
	if !ok {
		return
	}

	n, err := h.noticeService.GetNotice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Notice retrieved successfully", n)
}

// AdminCreateNotice handles POST /admin/notices
func (h *NoticeHandler) AdminCreateNotice(c *gin.Context) {
	var req notice.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	n, err := h.noticeService.CreateNotice(c.Request.Context(), middleware.PrincipalFromContext(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Notice created successfully", n)
}

// AdminUpdateNotice handles PUT /admin/notices/:id
func (h *NoticeHandler) AdminUpdateNotice(c *gin.Context) {
	id, ok := parseID(c, "id", "notice ID")
	if !ok {
		return
	}

	var req notice.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	n, err := h.noticeService.UpdateNotice(c.Request.Context(), middleware.PrincipalFromContext(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Notice updated successfully", n)
}

// AdminDeleteNotice handles DELETE /admin/notices/:id
func (h *NoticeHandler) AdminDeleteNotice(c *gin.Context) {
	id, ok := parseID(c, "id", "notice ID")
	if !ok {
		return
	}

	if err := h.noticeService.DeleteNotice(c.Request.Context(), middleware.PrincipalFromContext(c), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Notice deleted successfully", nil)
}

// AdminTogglePin handles PATCH /admin/notices/:id/pin
func (h *NoticeHandler) AdminTogglePin(c *gin.Context) {
	id, ok := parseID(c, "id", "notice ID")
	if !ok {
		return
	}

	n, err := h.noticeService.TogglePin(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Notice pin toggled", n)
}
