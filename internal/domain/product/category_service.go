// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/caster-store/internal/pkg/apperror"
)

// CategoryService handles category business logic
type CategoryService struct {
	repo CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

// ListCategories returns categories with their published product counts,
// ordered by sort order then name
func (s *CategoryService) ListCategories(ctx context.Context, includeInactive bool) ([]CategoryWithCount, error) {
	categories, err := s.repo.ListWithCounts(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategoryBySlug retrieves an active category by slug
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !category.IsActive {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name is required")
	}

	slug := GenerateSlug(name)
	if req.Slug != "" {
		slug = GenerateSlug(req.Slug)
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, slug)
	} else if !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	category := &Category{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    active,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// EnsureCategory returns the category with the given name, creating it when missing
func (s *CategoryService) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("category name is required")
	}

	category, err := s.repo.GetByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	base := GenerateSlug(name)
	slug := base
	for i := 2; ; i++ {
		_, err := s.repo.GetBySlug(ctx, slug)
		if errors.Is(err, ErrCategoryNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	category = &Category{Name: name, Slug: slug, IsActive: true}
	if err := s.repo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}
