package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/catalog"
	"github.com/junaidrashid-git/storefront/config"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/routes"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{
		{"serve"}, {"migrate"},
		{"products", "import"}, {"products", "export"},
		{"reconcile", "worker"}, {"reconcile", "start"},
		{"cart", "show"}, {"cart", "add"}, {"cart", "inc"}, {"cart", "set"}, {"cart", "remove"},
		{"cart", "clear"}, {"cart", "login"}, {"cart", "logout"}, {"cart", "checkout"}, {"cart", "verify"},
	} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "migrate", "--format", "yaml", "--database-url", "sqlite://"+filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestProductsImportExport(t *testing.T) {
	dir := t.TempDir()
	dbURL := "sqlite://" + filepath.Join(dir, "store.db")

	out, err := run(t, "migrate", "--database-url", dbURL)
	require.NoError(t, err)
	assert.Contains(t, out, "migrations applied")

	book, err := catalog.Export([]models.Product{
		{Slug: "xps-13", Name: "XPS 13", Brand: "Dell", Price: decimal.RequireFromString("1899.99"), Stock: 4},
		{Slug: "xps-15", Name: "XPS 15", Brand: "Dell", Price: decimal.NewFromInt(2499), Stock: 2},
	})
	require.NoError(t, err)
	in := filepath.Join(dir, "in.xlsx")
	require.NoError(t, book.Save(in))

	out, err = run(t, "products", "import", in, "--database-url", dbURL, "--format", "json")
	require.NoError(t, err)
	var res catalog.ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, catalog.ImportResult{Created: 2}, res)

	exported := filepath.Join(dir, "out.xlsx")
	out, err = run(t, "products", "export", exported, "--database-url", dbURL)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 products")

	f, err := xlsx.OpenFile(exported)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Equal(t, 3, f.Sheets[0].MaxRow)
}

type liveServer struct {
	url   string
	store *store.Store
	deps  routes.Deps
}

func newLiveServer(t *testing.T) *liveServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := store.New(db)

	cfg := config.Default()
	cfg.JWTSecret = "cli-secret"
	cfg.UploadDir = t.TempDir()
	d := routes.NewDeps(cfg, s, nil, nil)
	srv := httptest.NewServer(routes.NewRouter(d))
	t.Cleanup(srv.Close)
	return &liveServer{url: srv.URL, store: s, deps: d}
}

func TestCartFlowAgainstServer(t *testing.T) {
	srv := newLiveServer(t)
	ctx := context.Background()
	p := models.Product{Slug: "spectre", Name: "Spectre x360", Brand: "HP", Price: decimal.NewFromInt(1500), Stock: 3}
	require.NoError(t, srv.store.CreateProduct(ctx, &p))
	id := strconv.FormatUint(uint64(p.ID), 10)

	common := []string{"--server", srv.url, "--data", filepath.Join(t.TempDir(), "cart.db")}
	cartCmd := func(args ...string) (string, error) {
		return run(t, append(append([]string{"cart"}, args...), common...)...)
	}

	// Guest adds more than stock: clamped.
	_, err := cartCmd("add", "spectre", "5")
	require.NoError(t, err)

	out, err := cartCmd("show", "--format", "json")
	require.NoError(t, err)
	var view cartView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "guest", view.Identity)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 3, view.Items[0].Quantity)

	// Sign in: guest cart merges into the user's server cart.
	u := models.User{ID: "carol", Email: "carol@example.com", Name: "Carol"}
	require.NoError(t, srv.store.UpsertUser(ctx, &u))
	token, err := srv.deps.Issuer.IssueUser(u)
	require.NoError(t, err)

	out, err = cartCmd("login", "--user", "carol", "--token", token)
	require.NoError(t, err)
	assert.Contains(t, out, "user:carol")

	remote, err := srv.store.ListCart(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, remote, 1)
	assert.Equal(t, 3, remote[0].Quantity)

	_, err = cartCmd("set", id, "2")
	require.NoError(t, err)
	remote, err = srv.store.ListCart(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, remote[0].Quantity)

	out, err = cartCmd("checkout", "--name", "Carol", "--email", "carol@example.com", "--phone", "0800", "--format", "json")
	require.NoError(t, err)
	var placed struct {
		OrderID   uint   `json:"order_id"`
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &placed))
	assert.NotZero(t, placed.OrderID)

	order, err := srv.store.GetOrder(ctx, placed.OrderID)
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, "carol", *order.UserID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	_, err = cartCmd("logout")
	require.NoError(t, err)
	out, err = cartCmd("show")
	require.NoError(t, err)
	assert.Contains(t, out, "cart (guest) is empty")
}

func TestCheckoutRejectsBadDetails(t *testing.T) {
	_, err := run(t, "cart", "checkout", "--name", "", "--email", "nope", "--data", filepath.Join(t.TempDir(), "cart.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}
