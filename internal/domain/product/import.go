// internal/domain/product/import.go
package product

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/caster-store/internal/pkg/apperror"
)

var importColumns = []string{
	"name", "description", "price", "category_name", "stock_quantity",
	"sku", "manufacturer", "main_image_filename", "additional_image_filenames",
}

// ImportRowError describes a CSV row that could not be imported
type ImportRowError struct {
	Line  int    `json:"line"`
	SKU   string `json:"sku,omitempty"`
	Error string `json:"error"`
}

// ImportResult summarizes a catalog import
type ImportResult struct {
	TotalRows          int              `json:"total_rows"`
	ProductsCreated    int              `json:"products_created"`
	ProductsUpdated    int              `json:"products_updated"`
	CategoriesResolved int              `json:"categories_resolved"`
	Errors             []ImportRowError `json:"errors,omitempty"`
}

// Importer loads products from the catalog CSV export
type Importer struct {
	products     Repository
	categories   *CategoryService
	imageBaseURL string
}

// NewImporter creates a catalog importer. Image filenames are resolved
// against imageBaseURL.
func NewImporter(products Repository, categories *CategoryService, imageBaseURL string) *Importer {
	return &Importer{
		products:     products,
		categories:   categories,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
	}
}

type importRow struct {
	line             int
	name             string
	description      string
	price            decimal.Decimal
	categoryName     string
	stock            int
	hasStock         bool
	sku              string
	manufacturer     string
	mainImage        string
	additionalImages []string
}

// Import upserts every row by SKU. Bad rows are reported and skipped.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, apperror.Validation("failed to read CSV header: %v", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	categoryCache := make(map[string]uint)
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Error: err.Error()})
			continue
		}
		if isBlank(record) {
			continue
		}
		result.TotalRows++

		row, err := parseImportRow(line, record, index)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, Error: err.Error()})
			continue
		}

		categoryID, ok := categoryCache[row.categoryName]
		if !ok {
			category, err := im.categories.EnsureCategory(ctx, row.categoryName)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{Line: line, SKU: row.sku, Error: err.Error()})
				continue
			}
			categoryID = category.ID
			categoryCache[row.categoryName] = categoryID
			result.CategoriesResolved++
		}

		created, err := im.upsert(ctx, row, categoryID)
		if err != nil {
			result.Errors = append(result.Errors, ImportRowError{Line: line, SKU: row.sku, Error: err.Error()})
			continue
		}
		if created {
			result.ProductsCreated++
		} else {
			result.ProductsUpdated++
		}
	}

	logrus.WithFields(logrus.Fields{
		"rows":    result.TotalRows,
		"created": result.ProductsCreated,
		"updated": result.ProductsUpdated,
		"errors":  len(result.Errors),
	}).Info("Catalog import finished")

	return result, nil
}

func (im *Importer) upsert(ctx context.Context, row *importRow, categoryID uint) (bool, error) {
	existing, err := im.products.GetBySKU(ctx, row.sku)
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return false, err
	}

	images := make([]string, 0, len(row.additionalImages))
	for _, f := range row.additionalImages {
		images = append(images, im.imageURL(f))
	}

	if existing != nil {
		existing.Name = row.name
		existing.Description = row.description
		existing.Price = row.price
		existing.Manufacturer = row.manufacturer
		existing.CategoryID = categoryID
		existing.MainImage = im.imageURL(row.mainImage)
		existing.AdditionalImages = images
		if err := im.products.Update(ctx, existing); err != nil {
			return false, err
		}
		// a blank stock cell leaves the live stock alone
		if row.hasStock {
			return false, im.products.SetStock(ctx, existing.ID, row.stock)
		}
		return false, nil
	}

	base := GenerateSlug(row.name)
	slug := base
	for i := 2; ; i++ {
		exists, err := im.products.SlugExists(ctx, slug)
		if err != nil {
			return false, err
		}
		if !exists {
			break
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	return true, im.products.Create(ctx, &Product{
		SKU:              row.sku,
		Name:             row.name,
		Slug:             slug,
		Description:      row.description,
		Manufacturer:     row.manufacturer,
		Price:            row.price,
		StockQuantity:    row.stock,
		CategoryID:       categoryID,
		IsPublished:      true,
		MainImage:        im.imageURL(row.mainImage),
		AdditionalImages: images,
	})
}

func (im *Importer) imageURL(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" || im.imageBaseURL == "" || strings.HasPrefix(filename, "http") {
		return filename
	}
	return im.imageBaseURL + "/" + strings.TrimLeft(filename, "/")
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range []string{"name", "price", "category_name", "sku"} {
		if _, ok := index[required]; !ok {
			return nil, apperror.Validation("CSV header is missing column %q (expected %s)", required, strings.Join(importColumns, ","))
		}
	}
	return index, nil
}

func parseImportRow(line int, record []string, index map[string]int) (*importRow, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	row := &importRow{
		line:         line,
		name:         field("name"),
		description:  field("description"),
		categoryName: field("category_name"),
		sku:          field("sku"),
		manufacturer: field("manufacturer"),
		mainImage:    field("main_image_filename"),
	}

	if row.name == "" || row.sku == "" || row.categoryName == "" {
		return nil, fmt.Errorf("name, sku and category_name are required")
	}

	price, err := parseLoosePrice(field("price"))
	if err != nil {
		return nil, err
	}
	row.price = price

	if raw := field("stock_quantity"); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock_quantity %q", raw)
		}
		row.stock = stock
		row.hasStock = true
	}

	for _, f := range strings.Split(field("additional_image_filenames"), ";") {
		if f = strings.TrimSpace(f); f != "" {
			row.additionalImages = append(row.additionalImages, f)
		}
	}

	return row, nil
}

var pricePattern = regexp.MustCompile(`^(\d+|\d{1,3}(,\d{3})+)(\.\d+)?$`)

// parseLoosePrice accepts values such as "12,500" or "₩12500.00". Commas
// are only read as thousands separators; negative amounts and mixed
// separator styles such as "12.500,00" are rejected.
func parseLoosePrice(raw string) (decimal.Decimal, error) {
	if digit := strings.IndexAny(raw, "0123456789"); digit > 0 && strings.Contains(raw[:digit], "-") {
		return decimal.Zero, fmt.Errorf("invalid price %q: must not be negative", raw)
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw)
	if !pricePattern.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(cleaned, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", raw)
	}
	return price.Round(2), nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
