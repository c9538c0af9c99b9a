package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/pagination"
)

// ProductRepository implements product.Repository
type ProductRepository struct {
	db *DB
}

var _ product.Repository = (*ProductRepository)(nil)

func (d *dataset) withCategory(p product.Product) product.Product {
	if c, ok := d.categories[p.CategoryID]; ok {
		p.Category = &c
	}
	if p.AdditionalImages != nil {
		p.AdditionalImages = append([]string(nil), p.AdditionalImages...)
	}
	return p
}

func matchesProduct(d *dataset, p product.Product, f product.ListFilter, categoryID uint) bool {
	if !f.IncludeUnpublished && !p.IsPublished {
		return false
	}
	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.CategorySlug != "" && p.CategoryID != categoryID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(strings.Join([]string{p.Name, p.SKU, p.Description, p.Manufacturer}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.InStockOnly && p.StockQuantity <= 0 {
		return false
	}
	if f.Featured != nil && p.IsFeatured != *f.Featured {
		return false
	}
	return true
}

func productLess(a, b product.Product, sortBy string) bool {
	switch sortBy {
	case "name":
		return a.Name < b.Name
	case "price":
		return a.Price.LessThan(b.Price)
	case "stock_quantity":
		return a.StockQuantity < b.StockQuantity
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (r *ProductRepository) List(ctx context.Context, f product.ListFilter) ([]product.Product, int64, error) {
	var out []product.Product
	r.db.read(func(d *dataset) {
		var categoryID uint
		if f.CategorySlug != "" {
			for _, c := range d.categories {
				if c.Slug == f.CategorySlug {
					categoryID = c.ID
					break
				}
			}
		}
		for _, p := range d.products {
			if matchesProduct(d, p, f, categoryID) {
				out = append(out, d.withCategory(p))
			}
		}
	})

	sort.SliceStable(out, func(i, j int) bool {
		if f.SortOrder == "asc" {
			return productLess(out[i], out[j], f.SortBy)
		}
		return productLess(out[j], out[i], f.SortBy)
	})

	total := int64(len(out))
	start, end := pagination.Window(f.Page, f.Limit, len(out))
	return out[start:end], total, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.db.read(func(d *dataset) {
		if p, ok = d.products[id]; ok {
			p = d.withCategory(p)
		}
	})
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (r *ProductRepository) find(match func(product.Product) bool) (*product.Product, error) {
	var (
		found product.Product
		ok    bool
	)
	r.db.read(func(d *dataset) {
		for _, p := range d.products {
			if match(p) {
				found, ok = d.withCategory(p), true
				return
			}
		}
	})
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &found, nil
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return r.find(func(p product.Product) bool { return p.Slug == slug })
}

func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	return r.find(func(p product.Product) bool { return p.SKU == sku })
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	if errors.Is(err, product.ErrProductNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	return r.db.write(func(d *dataset) error {
		for _, existing := range d.products {
			if existing.SKU == p.SKU {
				return product.ErrDuplicateSKU
			}
			if existing.Slug == p.Slug {
				return product.ErrDuplicateProduct
			}
		}
		now := r.db.timestamp()
		p.ID = d.nextID("products")
		p.CreatedAt, p.UpdatedAt = now, now
		stored := *p
		stored.Category = nil
		d.products[p.ID] = stored
		return nil
	})
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	return r.db.write(func(d *dataset) error {
		current, ok := d.products[p.ID]
		if !ok {
			return product.ErrProductNotFound
		}
		for id, existing := range d.products {
			if id != p.ID && (existing.Slug == p.Slug || existing.SKU == p.SKU) {
				return product.ErrDuplicateProduct
			}
		}
		p.StockQuantity = current.StockQuantity
		p.CreatedAt = current.CreatedAt
		p.UpdatedAt = r.db.timestamp()
		stored := *p
		stored.Category = nil
		d.products[p.ID] = stored
		return nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.write(func(d *dataset) error {
		if _, ok := d.products[id]; !ok {
			return product.ErrProductNotFound
		}
		if d.hasActiveOrderLines(id) {
			return product.ErrProductInUse
		}
		delete(d.products, id)
		for itemID, item := range d.cartItems {
			if item.ProductID == id {
				delete(d.cartItems, itemID)
			}
		}
		return nil
	})
}

func (r *ProductRepository) SetStock(ctx context.Context, id uint, quantity int) error {
	return r.db.write(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return product.ErrProductNotFound
		}
		p.StockQuantity = quantity
		p.UpdatedAt = r.db.timestamp()
		d.products[id] = p
		return nil
	})
}

func (d *dataset) hasActiveOrderLines(id uint) bool {
	for _, item := range d.orderItems {
		if item.ProductID != id {
			continue
		}
		if o, ok := d.orders[item.OrderID]; ok && !o.Status.IsTerminal() {
			return true
		}
	}
	return false
}

// CategoryRepository implements product.CategoryRepository
type CategoryRepository struct {
	db *DB
}

var _ product.CategoryRepository = (*CategoryRepository)(nil)

func (r *CategoryRepository) ListWithCounts(ctx context.Context, includeInactive bool) ([]product.CategoryWithCount, error) {
	var out []product.CategoryWithCount
	r.db.read(func(d *dataset) {
		counts := map[uint]int64{}
		for _, p := range d.products {
			if p.IsPublished {
				counts[p.CategoryID]++
			}
		}
		for _, c := range d.categories {
			if !includeInactive && !c.IsActive {
				continue
			}
			out = append(out, product.CategoryWithCount{Category: c, ProductCount: counts[c.ID]})
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *CategoryRepository) find(match func(product.Category) bool) (*product.Category, error) {
	var (
		found product.Category
		ok    bool
	)
	r.db.read(func(d *dataset) {
		for _, c := range d.categories {
			if match(c) {
				found, ok = c, true
				return
			}
		}
	})
	if !ok {
		return nil, product.ErrCategoryNotFound
	}
	return &found, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*product.Category, error) {
	return r.find(func(c product.Category) bool { return c.ID == id })
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*product.Category, error) {
	return r.find(func(c product.Category) bool { return c.Slug == slug })
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*product.Category, error) {
	return r.find(func(c product.Category) bool { return strings.EqualFold(c.Name, name) })
}

func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	return r.db.write(func(d *dataset) error {
		for _, existing := range d.categories {
			if existing.Slug == c.Slug {
				return product.ErrDuplicateSlug
			}
		}
		now := r.db.timestamp()
		c.ID = d.nextID("categories")
		c.CreatedAt, c.UpdatedAt = now, now
		d.categories[c.ID] = *c
		return nil
	})
}
