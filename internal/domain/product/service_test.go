package product_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/domain/order"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/infrastructure/database/memory"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

func newCatalog(t *testing.T) (*product.Service, *product.CategoryService, *product.Category) {
	t.Helper()
	db := memory.New()
	categories := product.NewCategoryService(db.Categories())

	category, err := categories.CreateCategory(context.Background(), &product.CategoryCreateRequest{Name: "Heavy Duty Casters"})
	require.NoError(t, err)

	return product.NewService(db.Products(), db.Categories()), categories, category
}

func createRequest(sku, name, price string, stock int, categoryID uint) *product.ProductCreateRequest {
	return &product.ProductCreateRequest{
		SKU:           sku,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CategoryID:    categoryID,
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Heavy Duty Caster 100mm", "heavy-duty-caster-100mm"},
		{"  Swivel / Brake  ", "swivel-brake"},
		{"우레탄 바퀴", "우레탄-바퀴"},
		{"!!!", "item"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, product.GenerateSlug(tt.in), tt.in)
	}
}

func TestCreateProduct(t *testing.T) {
	svc, _, category := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, createRequest("CS-100", "Swivel Caster", "12.345", 10, category.ID))
	require.NoError(t, err)
	assert.Equal(t, "swivel-caster", p.Slug)
	assert.True(t, p.IsPublished)
	assert.Equal(t, "12.35", p.Price.StringFixed(2))
	require.NotNil(t, p.Category)
	assert.Equal(t, category.ID, p.Category.ID)

	second, err := svc.CreateProduct(ctx, createRequest("CS-101", "Swivel Caster", "1", 1, category.ID))
	require.NoError(t, err)
	assert.Equal(t, "swivel-caster-2", second.Slug)

	_, err = svc.CreateProduct(ctx, createRequest("CS-100", "Other", "1", 1, category.ID))
	assert.ErrorIs(t, err, product.ErrDuplicateSKU)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = svc.CreateProduct(ctx, createRequest("CS-200", "Other", "1", 1, 999))
	assert.ErrorIs(t, err, product.ErrCategoryNotFound)

	_, err = svc.CreateProduct(ctx, createRequest("CS-201", "Other", "-1", 1, category.ID))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.CreateProduct(ctx, createRequest("CS-202", "Other", "1", -1, category.ID))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestPublishedVisibility(t *testing.T) {
	svc, _, category := newCatalog(t)
	ctx := context.Background()

	hidden := false
	req := createRequest("CS-300", "Hidden Caster", "5", 3, category.ID)
	req.IsPublished = &hidden
	p, err := svc.CreateProduct(ctx, req)
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, createRequest("CS-301", "Visible Caster", "5", 3, category.ID))
	require.NoError(t, err)

	_, err = svc.GetProduct(ctx, p.ID, false)
	assert.ErrorIs(t, err, product.ErrProductNotFound)
	_, err = svc.GetProductBySlug(ctx, p.Slug, false)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	got, err := svc.GetProduct(ctx, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "Hidden Caster", got.Name)

	public, err := svc.ListProducts(ctx, &product.ProductListRequest{}, false)
	require.NoError(t, err)
	assert.Len(t, public.Products, 1)
	assert.Equal(t, int64(1), public.Pagination.Total)

	all, err := svc.ListProducts(ctx, &product.ProductListRequest{}, true)
	require.NoError(t, err)
	assert.Len(t, all.Products, 2)
}

func TestListProductsFilters(t *testing.T) {
	svc, _, category := newCatalog(t)
	ctx := context.Background()

	for _, req := range []*product.ProductCreateRequest{
		createRequest("A-1", "Alpha Wheel", "10", 0, category.ID),
		createRequest("B-1", "Bravo Wheel", "20", 5, category.ID),
		createRequest("C-1", "Charlie Plate", "30", 8, category.ID),
	} {
		_, err := svc.CreateProduct(ctx, req)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		req  product.ProductListRequest
		want []string
	}{
		{"search", product.ProductListRequest{Search: "wheel", SortBy: "name", SortOrder: "asc"}, []string{"A-1", "B-1"}},
		{"in stock", product.ProductListRequest{InStock: true, SortBy: "name", SortOrder: "asc"}, []string{"B-1", "C-1"}},
		{"price range", product.ProductListRequest{MinPrice: "15", MaxPrice: "25"}, []string{"B-1"}},
		{"price desc", product.ProductListRequest{SortBy: "price", SortOrder: "desc"}, []string{"C-1", "B-1", "A-1"}},
		{"category slug", product.ProductListRequest{CategorySlug: category.Slug, SortBy: "name", SortOrder: "asc"}, []string{"A-1", "B-1", "C-1"}},
		{"unknown sort falls back", product.ProductListRequest{SortBy: "bogus", SortOrder: "asc"}, []string{"A-1", "B-1", "C-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListProducts(ctx, &tt.req, false)
			require.NoError(t, err)
			skus := make([]string, 0, len(resp.Products))
			for _, p := range resp.Products {
				skus = append(skus, p.SKU)
			}
			assert.Equal(t, tt.want, skus)
		})
	}

	_, err := svc.ListProducts(ctx, &product.ProductListRequest{MinPrice: "abc"}, false)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	page, err := svc.ListProducts(ctx, &product.ProductListRequest{Page: 2, Limit: 2}, false)
	require.NoError(t, err)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasPrev)
}

func TestUpdateProduct(t *testing.T) {
	svc, _, category := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, createRequest("U-1", "Old Name", "10", 1, category.ID))
	require.NoError(t, err)

	name := "New Name"
	price := decimal.RequireFromString("11.5")
	stock := 7
	updated, err := svc.UpdateProduct(ctx, p.ID, &product.ProductUpdateRequest{Name: &name, Price: &price, StockQuantity: &stock})
	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Slug)
	assert.Equal(t, "11.50", updated.Price.StringFixed(2))
	assert.Equal(t, 7, updated.StockQuantity)
	assert.Equal(t, "U-1", updated.SKU)

	empty := " "
	_, err = svc.UpdateProduct(ctx, p.ID, &product.ProductUpdateRequest{Name: &empty})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	negative := -1
	_, err = svc.UpdateProduct(ctx, p.ID, &product.ProductUpdateRequest{StockQuantity: &negative})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateProduct(ctx, 999, &product.ProductUpdateRequest{Name: &name})
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestUpdateStockAndDelete(t *testing.T) {
	svc, _, category := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, createRequest("S-1", "Stocked", "10", 1, category.ID))
	require.NoError(t, err)

	updated, err := svc.UpdateStock(ctx, p.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, updated.StockQuantity)

	_, err = svc.UpdateStock(ctx, p.ID, -3)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = svc.UpdateStock(ctx, 999, 1)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID, true)
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), product.ErrProductNotFound)
}

func TestCategories(t *testing.T) {
	svc, categories, category := newCatalog(t)
	ctx := context.Background()

	assert.Equal(t, "heavy-duty-casters", category.Slug)
	assert.True(t, category.IsActive)

	_, err := categories.CreateCategory(ctx, &product.CategoryCreateRequest{Name: "Heavy Duty Casters"})
	assert.ErrorIs(t, err, product.ErrDuplicateSlug)

	inactive := false
	hidden, err := categories.CreateCategory(ctx, &product.CategoryCreateRequest{Name: "Archive", IsActive: &inactive})
	require.NoError(t, err)
	_, err = categories.GetCategoryBySlug(ctx, hidden.Slug)
	assert.ErrorIs(t, err, product.ErrCategoryNotFound)

	_, err = svc.CreateProduct(ctx, createRequest("K-1", "Counted", "1", 1, category.ID))
	require.NoError(t, err)

	active, err := categories.ListCategories(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].ProductCount)

	all, err := categories.ListCategories(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ensured, err := categories.EnsureCategory(ctx, "Heavy Duty Casters")
	require.NoError(t, err)
	assert.Equal(t, category.ID, ensured.ID)

	created, err := categories.EnsureCategory(ctx, "Plates")
	require.NoError(t, err)
	assert.Equal(t, "plates", created.Slug)
}

// staleReadRepository runs afterRead once, between the service's read of a
// product and its write, to interleave a concurrent checkout.
type staleReadRepository struct {
	product.Repository
	afterRead func()
}

func (r *staleReadRepository) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	p, err := r.Repository.GetByID(ctx, id)
	if r.afterRead != nil {
		fn := r.afterRead
		r.afterRead = nil
		fn()
	}
	return p, err
}

func TestUpdateProductKeepsConcurrentStockChanges(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	category, err := product.NewCategoryService(db.Categories()).
		CreateCategory(ctx, &product.CategoryCreateRequest{Name: "Casters"})
	require.NoError(t, err)

	repo := &staleReadRepository{Repository: db.Products()}
	svc := product.NewService(repo, db.Categories())

	p, err := svc.CreateProduct(ctx, createRequest("R-1", "Race Caster", "10", 5, category.ID))
	require.NoError(t, err)

	repo.afterRead = func() {
		err := db.Orders().WithTx(ctx, func(tx order.Tx) error {
			return tx.DecrementStock(ctx, p.ID, 3)
		})
		require.NoError(t, err)
	}

	name := "Renamed caster"
	updated, err := svc.UpdateProduct(ctx, p.ID, &product.ProductUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed caster", updated.Name)
	assert.Equal(t, 2, updated.StockQuantity)

	stored, err := db.Products().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.StockQuantity)
	assert.Equal(t, "renamed-caster", stored.Slug)
}

func TestDeleteProductInUse(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	category, err := product.NewCategoryService(db.Categories()).
		CreateCategory(ctx, &product.CategoryCreateRequest{Name: "Casters"})
	require.NoError(t, err)
	svc := product.NewService(db.Products(), db.Categories())

	p, err := svc.CreateProduct(ctx, createRequest("D-1", "Ordered Caster", "10", 5, category.ID))
	require.NoError(t, err)

	var orderID uint
	err = db.Orders().WithTx(ctx, func(tx order.Tx) error {
		o := &order.Order{Status: order.OrderStatusPending, Items: []order.OrderItem{{ProductID: p.ID, Quantity: 1}}}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}
		orderID = o.ID
		return nil
	})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, p.ID)
	assert.ErrorIs(t, err, product.ErrProductInUse)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	err = db.Orders().WithTx(ctx, func(tx order.Tx) error {
		return tx.SetStatus(ctx, orderID, order.OrderStatusCancelled)
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
}
