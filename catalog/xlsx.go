// Package catalog moves the product catalog in and out of Excel workbooks.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

const SheetName = "Products"

var Headers = []string{
	"ID", "Slug", "Name", "Brand", "Price", "Stock", "Images",
	"Description", "Display", "RAM", "Storage", "CreatedAt", "UpdatedAt",
}

// Export writes one header row and one row per product.
func Export(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range Headers {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetInt(int(p.ID))
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(p.Name)
		row.AddCell().SetString(p.Brand)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetInt(p.Stock)
		row.AddCell().SetString(strings.Join(p.Images, ","))
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Specs.Display)
		row.AddCell().SetString(p.Specs.RAM)
		row.AddCell().SetString(p.Specs.Storage)
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return file, nil
}

// ImportResult counts what Import did with each data row.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Import reads the first sheet. A row updates the product with its ID (or
// slug) when one exists and creates a product otherwise. Rows without a
// slug, name or valid price are skipped.
func Import(ctx context.Context, s *store.Store, file *xlsx.File) (ImportResult, error) {
	var res ImportResult
	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 2 {
		return res, errors.New("Excel file is empty or missing header row")
	}

	sheet := file.Sheets[0]
	for i := 1; i < len(sheet.Rows); i++ {
		p, ok := parseRow(sheet.Rows[i])
		if !ok {
			res.Skipped++
			continue
		}

		existing, err := findExisting(ctx, s, p)
		switch {
		case err == nil:
			existing.Slug = p.Slug
			existing.Name = p.Name
			existing.Brand = p.Brand
			existing.Price = p.Price
			existing.Stock = p.Stock
			existing.Images = p.Images
			existing.Description = p.Description
			existing.Specs = p.Specs
			if err := s.SaveProduct(ctx, &existing); err != nil {
				log.Printf("⚠️ import row %d: %v", i+1, err)
				res.Skipped++
				continue
			}
			res.Updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			p.ID = 0
			if err := s.CreateProduct(ctx, &p); err != nil {
				log.Printf("⚠️ import row %d: %v", i+1, err)
				res.Skipped++
				continue
			}
			res.Created++
		default:
			return res, err
		}
	}
	return res, nil
}

func findExisting(ctx context.Context, s *store.Store, p models.Product) (models.Product, error) {
	if p.ID != 0 {
		existing, err := s.GetProduct(ctx, p.ID)
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return existing, err
		}
	}
	return s.GetProductBySlug(ctx, p.Slug)
}

func parseRow(row *xlsx.Row) (models.Product, bool) {
	if row == nil {
		return models.Product{}, false
	}
	get := func(index int) string {
		if index < len(row.Cells) {
			return strings.TrimSpace(row.Cells[index].String())
		}
		return ""
	}

	price, err := decimal.NewFromString(get(4))
	if err != nil || price.IsNegative() {
		return models.Product{}, false
	}
	stock, err := strconv.Atoi(get(5))
	if err != nil || stock < 0 {
		stock = 0
	}

	p := models.Product{
		Slug:        get(1),
		Name:        get(2),
		Brand:       get(3),
		Price:       price,
		Stock:       stock,
		Description: get(7),
		Specs: models.ProductSpecs{
			Display: get(8),
			RAM:     get(9),
			Storage: get(10),
		},
	}
	if id, err := strconv.ParseUint(get(0), 10, 64); err == nil {
		p.ID = uint(id)
	}
	for _, img := range strings.Split(get(6), ",") {
		if img = strings.TrimSpace(img); img != "" {
			p.Images = append(p.Images, img)
		}
	}
	if p.Slug == "" || p.Name == "" {
		return models.Product{}, false
	}
	return p, true
}
