package product_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/infrastructure/database/memory"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

const catalogCSV = "\ufeffname,description,price,category_name,stock_quantity,sku,manufacturer,main_image_filename,additional_image_filenames\n" +
	"Swivel Caster 75mm,Light duty,\"12,500\",Light Casters,40,LC-75,Hanil,lc75.jpg,lc75-a.jpg;lc75-b.jpg\n" +
	"Rigid Caster 75mm,Light duty,₩9800.00,Light Casters,25,LC-75R,Hanil,,\n" +
	"Broken Row,,not-a-price,Light Casters,1,BR-1,,,\n" +
	",,,,,,,,\n" +
	"Heavy Plate,,55000,Plates,-4,HP-1,,,\n"

func newImporter(t *testing.T) (*product.Importer, *product.Service) {
	t.Helper()
	db := memory.New()
	categories := product.NewCategoryService(db.Categories())
	return product.NewImporter(db.Products(), categories, "https://shop.example.com/images/products/"),
		product.NewService(db.Products(), db.Categories())
}

func TestImportCatalog(t *testing.T) {
	importer, svc := newImporter(t)
	ctx := context.Background()

	result, err := importer.Import(ctx, strings.NewReader(catalogCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 2, result.ProductsCreated)
	assert.Equal(t, 0, result.ProductsUpdated)
	assert.Equal(t, 1, result.CategoriesResolved)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 4, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Error, "invalid price")
	assert.Equal(t, 6, result.Errors[1].Line)
	assert.Contains(t, result.Errors[1].Error, "stock_quantity")

	list, err := svc.ListProducts(ctx, &product.ProductListRequest{SortBy: "name", SortOrder: "asc"}, true)
	require.NoError(t, err)
	require.Len(t, list.Products, 2)

	rigid, swivel := list.Products[0], list.Products[1]
	assert.Equal(t, "LC-75R", rigid.SKU)
	assert.Equal(t, "9800.00", rigid.Price.StringFixed(2))
	assert.Empty(t, rigid.MainImage)

	assert.Equal(t, "LC-75", swivel.SKU)
	assert.Equal(t, "12500.00", swivel.Price.StringFixed(2))
	assert.Equal(t, 40, swivel.StockQuantity)
	assert.True(t, swivel.IsPublished)
	assert.Equal(t, "https://shop.example.com/images/products/lc75.jpg", swivel.MainImage)
	assert.Equal(t, []string{
		"https://shop.example.com/images/products/lc75-a.jpg",
		"https://shop.example.com/images/products/lc75-b.jpg",
	}, swivel.AdditionalImages)
	assert.Equal(t, rigid.CategoryID, swivel.CategoryID)
}

func TestImportUpdatesBySKU(t *testing.T) {
	importer, svc := newImporter(t)
	ctx := context.Background()

	_, err := importer.Import(ctx, strings.NewReader(catalogCSV))
	require.NoError(t, err)

	update := "sku,name,price,category_name,stock_quantity\n" +
		"LC-75,Swivel Caster 75mm v2,13000,Light Casters,5\n"
	result, err := importer.Import(ctx, strings.NewReader(update))
	require.NoError(t, err)
	assert.Equal(t, 0, result.ProductsCreated)
	assert.Equal(t, 1, result.ProductsUpdated)
	assert.Empty(t, result.Errors)

	list, err := svc.ListProducts(ctx, &product.ProductListRequest{Search: "LC-75", SortBy: "name", SortOrder: "desc"}, true)
	require.NoError(t, err)
	require.NotEmpty(t, list.Products)
	updated := list.Products[0]
	assert.Equal(t, "Swivel Caster 75mm v2", updated.Name)
	assert.Equal(t, 5, updated.StockQuantity)
	assert.Equal(t, "13000.00", updated.Price.StringFixed(2))
}

func TestImportRejectsMissingColumns(t *testing.T) {
	importer, _ := newImporter(t)

	_, err := importer.Import(context.Background(), strings.NewReader("name,price\nx,1\n"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "category_name")

	_, err = importer.Import(context.Background(), strings.NewReader(""))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestImportPriceFormats(t *testing.T) {
	tests := []struct {
		name    string
		price   string
		want    string
		wantErr string
	}{
		{"thousands separator", `"12,500"`, "12500.00", ""},
		{"currency prefix", "₩9800.00", "9800.00", ""},
		{"plain decimal", "15.5", "15.50", ""},
		{"grouped with cents", `"1,234,567.891"`, "1234567.89", ""},
		{"negative", "-100", "", "must not be negative"},
		{"negative after currency", "₩-100", "", "must not be negative"},
		{"european separators", `"12.500,00"`, "", "invalid price"},
		{"ambiguous comma", `"1,5"`, "", "invalid price"},
		{"two dots", "1.234.567", "", "invalid price"},
		{"no digits", "free", "", "invalid price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			importer, svc := newImporter(t)
			ctx := context.Background()

			csv := "sku,name,price,category_name\nPF-1,Price Format," + tt.price + ",Casters\n"
			result, err := importer.Import(ctx, strings.NewReader(csv))
			require.NoError(t, err)

			if tt.wantErr != "" {
				require.Len(t, result.Errors, 1)
				assert.Equal(t, 2, result.Errors[0].Line)
				assert.Contains(t, result.Errors[0].Error, tt.wantErr)
				assert.Zero(t, result.ProductsCreated)
				return
			}

			require.Empty(t, result.Errors)
			list, err := svc.ListProducts(ctx, &product.ProductListRequest{Search: "PF-1"}, true)
			require.NoError(t, err)
			require.Len(t, list.Products, 1)
			assert.Equal(t, tt.want, list.Products[0].Price.StringFixed(2))
		})
	}
}

func TestImportBlankStockKeepsLiveStock(t *testing.T) {
	importer, svc := newImporter(t)
	ctx := context.Background()

	_, err := importer.Import(ctx, strings.NewReader(catalogCSV))
	require.NoError(t, err)

	list, err := svc.ListProducts(ctx, &product.ProductListRequest{Search: "LC-75R"}, true)
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	rigid := list.Products[0]

	_, err = svc.UpdateStock(ctx, rigid.ID, 3)
	require.NoError(t, err)

	update := "sku,name,price,category_name,stock_quantity\n" +
		"LC-75R,Rigid Caster 75mm,9900,Light Casters,\n"
	result, err := importer.Import(ctx, strings.NewReader(update))
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProductsUpdated)

	got, err := svc.GetProduct(ctx, rigid.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)
	assert.Equal(t, "9900.00", got.Price.StringFixed(2))
}
