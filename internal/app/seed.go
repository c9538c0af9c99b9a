package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/domain/notice"
	"github.com/your-org/caster-store/internal/domain/product"
	"github.com/your-org/caster-store/internal/pkg/auth"
)

var seedCategories = []product.CategoryCreateRequest{
	{Name: "Industrial Casters", Slug: "industrial-casters", Description: "Heavy duty casters for carts and racks", SortOrder: 1},
	{Name: "Medium Duty Casters", Slug: "medium-duty-casters", Description: "Casters for trolleys and light equipment", SortOrder: 2},
	{Name: "Wheels", Slug: "wheels", Description: "Replacement wheels", SortOrder: 3},
	{Name: "Accessories", Slug: "accessories", Description: "Brakes, plates and fittings", SortOrder: 4},
}

var seedProducts = []struct {
	category string
	product.ProductCreateRequest
}{
	{"industrial-casters", product.ProductCreateRequest{SKU: "IC-100-SW", Name: "Heavy Duty Swivel Caster 100mm", Manufacturer: "Caster Works", Price: decimal.RequireFromString("18500"), StockQuantity: 120, IsFeatured: true}},
	{"industrial-casters", product.ProductCreateRequest{SKU: "IC-150-BR", Name: "Heavy Duty Brake Caster 150mm", Manufacturer: "Caster Works", Price: decimal.RequireFromString("27000"), StockQuantity: 60}},
	{"medium-duty-casters", product.ProductCreateRequest{SKU: "MC-75-RG", Name: "Rigid Caster 75mm", Manufacturer: "Caster Works", Price: decimal.RequireFromString("6500"), StockQuantity: 300}},
	{"wheels", product.ProductCreateRequest{SKU: "WH-125-PU", Name: "Polyurethane Wheel 125mm", Manufacturer: "Caster Works", Price: decimal.RequireFromString("9800"), StockQuantity: 80}},
}

// seedCatalog goes through the services so both storage drivers get the
// same rows. Existing rows are left alone.
func (a *App) seedCatalog(ctx context.Context) error {
	categoryIDs := make(map[string]uint, len(seedCategories))
	for _, req := range seedCategories {
		category, err := a.Categories.GetCategoryBySlug(ctx, req.Slug)
		if errors.Is(err, product.ErrCategoryNotFound) {
			category, err = a.Categories.CreateCategory(ctx, &req)
			if err == nil {
				logrus.WithField("category", category.Name).Info("Created category")
			}
		}
		if err != nil {
			return err
		}
		categoryIDs[req.Slug] = category.ID
	}

	created := 0
	for _, seed := range seedProducts {
		req := seed.ProductCreateRequest
		req.CategoryID = categoryIDs[seed.category]
		_, err := a.Products.CreateProduct(ctx, &req)
		if errors.Is(err, product.ErrDuplicateSKU) {
			continue
		}
		if err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		logrus.WithField("count", created).Info("Created sample products")
	}

	notices, err := a.Notices.ListNotices(ctx, &notice.ListRequest{Page: 1, Limit: 1})
	if err != nil {
		return err
	}
	if notices.Pagination.Total > 0 {
		return nil
	}

	system := &auth.Principal{Email: a.Config.App.AdminEmail, Role: auth.RoleAdmin}
	_, err = a.Notices.CreateNotice(ctx, system, &notice.CreateRequest{
		Title:    "Welcome",
		Content:  "Our online caster catalog is open. Contact us for bulk quotes.",
		Category: "general",
		IsPinned: true,
	})
	return err
}
