package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return store.New(db)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newStore(t)
	p := models.Product{
		Slug:   "thinkpad-x1",
		Name:   "ThinkPad X1 Carbon",
		Brand:  "Lenovo",
		Price:  decimal.RequireFromString("1250000.50"),
		Stock:  4,
		Images: []string{"https://cdn.example/x1-front.jpg", "https://cdn.example/x1-side.jpg"},
		Specs:  models.ProductSpecs{Display: "14\"", RAM: "16GB", Storage: "512GB"},
	}
	require.NoError(t, src.CreateProduct(ctx, &p))

	products, err := src.ListProducts(ctx, "")
	require.NoError(t, err)
	file, err := Export(products)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	reread, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)

	dst := newStore(t)
	res, err := Import(ctx, dst, reread)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 1}, res)

	got, err := dst.GetProductBySlug(ctx, "thinkpad-x1")
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Images, got.Images)
	assert.Equal(t, p.Specs, got.Specs)
	assert.Equal(t, 4, got.Stock)
	assert.True(t, p.Price.Equal(got.Price))

	// importing again updates in place
	res, err = Import(ctx, dst, reread)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Updated: 1}, res)
}

func TestImportSkipsBadRows(t *testing.T) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	require.NoError(t, err)
	header := sheet.AddRow()
	for _, h := range Headers {
		header.AddCell().SetString(h)
	}
	for _, cells := range [][]string{
		{"", "ok-slug", "Good", "HP", "1000", "2"},
		{"", "", "No slug", "HP", "1000", "2"},
		{"", "bad-price", "Bad price", "HP", "abc", "2"},
	} {
		row := sheet.AddRow()
		for _, v := range cells {
			row.AddCell().SetString(v)
		}
	}

	res, err := Import(context.Background(), newStore(t), file)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Created: 1, Skipped: 2}, res)
}

func TestImportEmptyWorkbook(t *testing.T) {
	_, err := Import(context.Background(), newStore(t), xlsx.NewFile())
	assert.Error(t, err)
}
