// internal/interfaces/http/handlers/product.go
package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/interfaces/http/middleware"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
	importer       *product.Importer
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *product.Service, importer *product.Importer) *ProductHandler {
	return &ProductHandler{
		productService: products,
		importer:       importer,
	}
}

// UpdateStockRequest sets an absolute stock level
type UpdateStockRequest struct {
	StockQuantity *int `json:"stock_quantity" binding:"required"`
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	h.listProducts(c, false)
}

// AdminGetProducts handles GET /admin/products, unpublished included
func (h *ProductHandler) AdminGetProducts(c *gin.Context) {
	h.listProducts(c, true)
}

func (h *ProductHandler) listProducts(c *gin.Context, includeUnpublished bool) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.productService.ListProducts(c.Request.Context(), &req, includeUnpublished)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Products retrieved successfully", response)
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	h.getProduct(c, false)
}

// AdminGetProduct handles GET /admin/products/:id
func (h *ProductHandler) AdminGetProduct(c *gin.Context) {
	h.getProduct(c, true)
}

func (h *ProductHandler) getProduct(c *gin.Context, includeUnpublished bool) {
	id, ok := parseID(c, "id", "product ID")
	if !ok {
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), id, includeUnpublished)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Product retrieved successfully", p)
}

// GetProductBySlug handles GET /products/slug/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Product slug is required",
		})
		return
	}

	p, err := h.productService.GetProductBySlug(c.Request.Context(), slug, false)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Product retrieved successfully", p)
}

// AdminCreateProduct handles POST /admin/products
func (h *ProductHandler) AdminCreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Product created successfully", p)
}

// AdminUpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) AdminUpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product ID")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Product updated successfully", p)
}

// AdminDeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) AdminDeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product ID")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Product deleted successfully", nil)
}

// AdminUpdateStock handles PATCH /admin/products/:id/stock
func (h *ProductHandler) AdminUpdateStock(c *gin.Context) {
	id, ok := parseID(c, "id", "product ID")
	if !ok {
		return
	}

	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateStock(c.Request.Context(), id, *req.StockQuantity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Stock updated successfully", p)
}

// AdminImportProducts handles POST /admin/products/import. The CSV is read
// from the multipart "file" field or, failing that, the raw body.
func (h *ProductHandler) AdminImportProducts(c *gin.Context) {
	var source io.Reader = c.Request.Body

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "CSV file is required",
			})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()
		source = file
	}

	result, err := h.importer.Import(c.Request.Context(), source)
	if err != nil {
		respondError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"created":    result.ProductsCreated,
		"updated":    result.ProductsUpdated,
		"failed":     len(result.Errors),
	}).Info("Catalog import finished")

	respondOK(c, http.StatusOK, "Products imported", result)
}
