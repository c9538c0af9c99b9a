package sqlstore

import (
	"context"
	"fmt"

	"github.com/your-org/caster-store/internal/domain/cart"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/pagination"
	"gorm.io/gorm"
)

// ProductRepository implements product.Repository
type ProductRepository struct {
	db *gorm.DB
}

var _ product.Repository = (*ProductRepository)(nil)

var productSortColumns = map[string]string{
	"name":           "products.name",
	"price":          "products.price",
	"created_at":     "products.created_at",
	"stock_quantity": "products.stock_quantity",
}

func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) ([]product.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&product.Product{})

	if !f.IncludeUnpublished {
		query = query.Where("products.is_published = ?", true)
	}
	if f.CategoryID != 0 {
		query = query.Where("products.category_id = ?", f.CategoryID)
	}
	if f.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where(
			"LOWER(products.name) LIKE LOWER(?) OR LOWER(products.sku) LIKE LOWER(?) OR LOWER(products.description) LIKE LOWER(?) OR LOWER(products.manufacturer) LIKE LOWER(?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if f.MinPrice != nil {
		query = query.Where("products.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("products.price <= ?", *f.MaxPrice)
	}
	if f.InStockOnly {
		query = query.Where("products.stock_quantity > 0")
	}
	if f.Featured != nil {
		query = query.Where("products.is_featured = ?", *f.Featured)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := productSortColumns[f.SortBy]
	if !ok {
		column = productSortColumns["created_at"]
	}
	direction := "DESC"
	if f.SortOrder == "asc" {
		direction = "ASC"
	}

	var products []product.Product
	err := query.
		Preload("Category").
		Order(fmt.Sprintf("%s %s, products.id %s", column, direction, direction)).
		Offset(pagination.Offset(f.Page, f.Limit)).
		Limit(f.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductRepository) first(ctx context.Context, query string, args ...any) (*product.Product, error) {
	var p product.Product
	err := r.db.WithContext(ctx).Preload("Category").Where(query, args...).First(&p).Error
	if err != nil {
		return nil, translate(err, product.ErrProductNotFound, nil)
	}
	return &p, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.first(ctx, "sku = ?", sku)
}

// SlugExists includes soft-deleted rows because the unique index still covers them
func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&product.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	return translate(r.db.WithContext(ctx).Omit("Category").Create(p).Error, nil, product.ErrDuplicateSKU)
}

// productUpdateColumns leaves out stock_quantity so a catalog edit never
// overwrites a decrement committed after the product was read
var productUpdateColumns = []string{
	"sku", "name", "slug", "description", "manufacturer", "price", "category_id",
	"is_published", "is_featured", "main_image", "additional_images", "updated_at",
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	res := r.db.WithContext(ctx).
		Model(&product.Product{ID: p.ID}).
		Select(productUpdateColumns).
		Updates(p)
	if res.Error != nil {
		return translate(res.Error, nil, product.ErrDuplicateProduct)
	}
	if res.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// Delete locks the product row, the same lock checkout takes, so no order
// can reference the product between the check and the delete
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.Clauses(forUpdate).First(&p, id).Error; err != nil {
			return translate(err, product.ErrProductNotFound, nil)
		}

		var active int64
		err := tx.Model(&order.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.product_id = ? AND orders.status NOT IN ?", id, order.TerminalStatuses()).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return product.ErrProductInUse
		}

		if err := tx.Where("product_id = ?", id).Delete(&cart.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
}

func (r *ProductRepository) SetStock(ctx context.Context, id uint, quantity int) error {
	res := r.db.WithContext(ctx).Model(&product.Product{}).Where("id = ?", id).Update("stock_quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return product.ErrProductNotFound
	}
	return nil
}

// CategoryRepository implements product.CategoryRepository
type CategoryRepository struct {
	db *gorm.DB
}

var _ product.CategoryRepository = (*CategoryRepository)(nil)

func (r *CategoryRepository) ListWithCounts(ctx context.Context, includeInactive bool) ([]product.CategoryWithCount, error) {
	query := r.db.WithContext(ctx).
		Model(&product.Category{}).
		Select("categories.*, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.is_published = ? AND products.deleted_at IS NULL", true).
		Group("categories.id")
	if !includeInactive {
		query = query.Where("categories.is_active = ?", true)
	}

	var categories []product.CategoryWithCount
	err := query.Order("categories.sort_order ASC, categories.name ASC").Scan(&categories).Error
	return categories, err
}

func (r *CategoryRepository) first(ctx context.Context, query string, args ...any) (*product.Category, error) {
	var c product.Category
	if err := r.db.WithContext(ctx).Where(query, args...).First(&c).Error; err != nil {
		return nil, translate(err, product.ErrCategoryNotFound, nil)
	}
	return &c, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*product.Category, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*product.Category, error) {
	return r.first(ctx, "slug = ?", slug)
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*product.Category, error) {
	return r.first(ctx, "LOWER(name) = LOWER(?)", name)
}

func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error, nil, product.ErrDuplicateSlug)
}
