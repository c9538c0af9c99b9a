// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/caster-store/internal/pkg/apperror"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// Service handles catalog business logic
type Service struct {
	repo       Repository
	categories CategoryRepository
}

// NewService creates a new product service
func NewService(repo Repository, categories CategoryRepository) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page         int    `form:"page,default=1"`
	Limit        int    `form:"limit,default=20"`
	CategoryID   uint   `form:"category_id"`
	CategorySlug string `form:"category"`
	Search       string `form:"search"`
	SortBy       string `form:"sort_by,default=created_at"`
	SortOrder    string `form:"sort_order,default=desc"`
	MinPrice     string `form:"min_price"`
	MaxPrice     string `form:"max_price"`
	InStock      bool   `form:"in_stock"`
	IsFeatured   *bool  `form:"is_featured"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	SKU              string          `json:"sku" binding:"required,max=100"`
	Name             string          `json:"name" binding:"required,max=255"`
	Description      string          `json:"description"`
	Manufacturer     string          `json:"manufacturer"`
	Price            decimal.Decimal `json:"price"`
	StockQuantity    int             `json:"stock_quantity" binding:"min=0"`
	CategoryID       uint            `json:"category_id" binding:"required"`
	IsPublished      *bool           `json:"is_published"`
	IsFeatured       bool            `json:"is_featured"`
	MainImage        string          `json:"main_image"`
	AdditionalImages []string        `json:"additional_images"`
}

// ProductUpdateRequest represents a partial product update
type ProductUpdateRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Manufacturer     *string          `json:"manufacturer"`
	Price            *decimal.Decimal `json:"price"`
	StockQuantity    *int             `json:"stock_quantity"`
	CategoryID       *uint            `json:"category_id"`
	IsPublished      *bool            `json:"is_published"`
	IsFeatured       *bool            `json:"is_featured"`
	MainImage        *string          `json:"main_image"`
	AdditionalImages []string         `json:"additional_images"`
}

// ProductListResponse represents a page of products
type ProductListResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// ListProducts retrieves products with filtering and pagination. Unpublished
// products are only returned when includeUnpublished is set.
func (s *Service) ListProducts(ctx context.Context, req *ProductListRequest, includeUnpublished bool) (*ProductListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	filter := ListFilter{
		Page:               page,
		Limit:              limit,
		CategoryID:         req.CategoryID,
		CategorySlug:       strings.TrimSpace(req.CategorySlug),
		Search:             strings.TrimSpace(req.Search),
		InStockOnly:        req.InStock,
		Featured:           req.IsFeatured,
		IncludeUnpublished: includeUnpublished,
	}
	filter.SortBy, filter.SortOrder = normalizeSort(req.SortBy, req.SortOrder)

	var err error
	if filter.MinPrice, err = parsePrice("min_price", req.MinPrice); err != nil {
		return nil, err
	}
	if filter.MaxPrice, err = parsePrice("max_price", req.MaxPrice); err != nil {
		return nil, err
	}

	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductListResponse{
		Products:   products,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint, includeUnpublished bool) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished && !includeUnpublished {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// GetProductBySlug retrieves a single product by slug
func (s *Service) GetProductBySlug(ctx context.Context, slug string, includeUnpublished bool) (*Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsPublished && !includeUnpublished {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	sku := strings.TrimSpace(req.SKU)
	name := strings.TrimSpace(req.Name)
	if sku == "" || name == "" {
		return nil, apperror.Validation("sku and name are required")
	}
	if req.Price.IsNegative() {
		return nil, apperror.Validation("price must not be negative")
	}
	if req.StockQuantity < 0 {
		return nil, apperror.Validation("stock_quantity must not be negative")
	}

	if _, err := s.repo.GetBySKU(ctx, sku); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, sku)
	} else if !errors.Is(err, ErrProductNotFound) {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}

	category, err := s.categories.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	product := &Product{
		SKU:              sku,
		Name:             name,
		Slug:             slug,
		Description:      req.Description,
		Manufacturer:     req.Manufacturer,
		Price:            req.Price.Round(2),
		StockQuantity:    req.StockQuantity,
		CategoryID:       category.ID,
		IsPublished:      published,
		IsFeatured:       req.IsFeatured,
		MainImage:        req.MainImage,
		AdditionalImages: req.AdditionalImages,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	product.Category = category

	return product, nil
}

// UpdateProduct applies a partial update to an existing product
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		if name != product.Name {
			slug, err := s.uniqueSlug(ctx, name)
			if err != nil {
				return nil, err
			}
			product.Name = name
			product.Slug = slug
		}
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Manufacturer != nil {
		product.Manufacturer = *req.Manufacturer
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperror.Validation("price must not be negative")
		}
		product.Price = req.Price.Round(2)
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return nil, apperror.Validation("stock_quantity must not be negative")
	}
	if req.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID = category.ID
		product.Category = category
	}
	if req.IsPublished != nil {
		product.IsPublished = *req.IsPublished
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.MainImage != nil {
		product.MainImage = *req.MainImage
	}
	if req.AdditionalImages != nil {
		product.AdditionalImages = req.AdditionalImages
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if req.StockQuantity != nil {
		if err := s.repo.SetStock(ctx, id, *req.StockQuantity); err != nil {
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
	}

	// reload so stock reflects orders placed since the read
	return s.repo.GetByID(ctx, id)
}

// DeleteProduct removes a product that no open order still references
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// UpdateStock sets the absolute stock level of a product
func (s *Service) UpdateStock(ctx context.Context, id uint, quantity int) (*Product, error) {
	if quantity < 0 {
		return nil, apperror.Validation("stock_quantity must not be negative")
	}
	if err := s.repo.SetStock(ctx, id, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := GenerateSlug(name)
	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// normalizeSort maps user input onto the sortable columns
func normalizeSort(sortBy, sortOrder string) (string, string) {
	validSortFields := map[string]bool{
		"name":           true,
		"price":          true,
		"created_at":     true,
		"stock_quantity": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder = strings.ToLower(sortOrder)
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return sortBy, sortOrder
}

func parsePrice(field, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, apperror.Validation("%s must be a non-negative number", field)
	}
	return &d, nil
}
