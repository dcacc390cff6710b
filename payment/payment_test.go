package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	sig := Sign("sk_test_secret", body)

	assert.NoError(t, VerifySignature("sk_test_secret", body, sig))
	assert.ErrorIs(t, VerifySignature("sk_test_other", body, sig), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test_secret", append(body, ' '), sig), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test_secret", body, "zz-not-hex"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("sk_test_secret", body, ""), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("", body, Sign("", body)), ErrInvalidSignature)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150050), MinorUnits(decimal.RequireFromString("1500.50")))
	assert.Equal(t, int64(25000000), MinorUnits(decimal.NewFromInt(250000)))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestMetadataShapes(t *testing.T) {
	cases := map[string]uint{
		`{"order_id": 42}`:   42,
		`{"order_id": "42"}`: 42,
		`""`:                 0,
		`null`:               0,
		`{}`:                 0,
	}
	for in, want := range cases {
		var m Metadata
		require.NoError(t, json.Unmarshal([]byte(in), &m), in)
		assert.Equal(t, want, m.OrderID, in)
	}

	var m Metadata
	assert.Error(t, json.Unmarshal([]byte(`{"order_id":"abc"}`), &m))
}

func TestPaystackInitializeAndVerify(t *testing.T) {
	var gotInit map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/transaction/initialize":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotInit))
			w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
		case "/transaction/verify/ref-1":
			w.Write([]byte(`{"status":true,"message":"ok","data":{"id":991,"status":"success","reference":"ref-1","amount":150050,"currency":"NGN","metadata":{"order_id":"7"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		}
	}))
	defer srv.Close()

	ps := NewPaystack("sk_test", srv.URL+"/")
	ctx := context.Background()

	init, err := ps.Initialize(ctx, InitializeRequest{
		Email:     "ada@example.com",
		Amount:    decimal.RequireFromString("1500.50"),
		Currency:  "NGN",
		Reference: "ref-1",
		OrderID:   7,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", init.AuthorizationURL)
	assert.Equal(t, "150050", gotInit["amount"])
	assert.Equal(t, map[string]interface{}{"order_id": float64(7)}, gotInit["metadata"])

	tx, err := ps.Verify(ctx, "ref-1")
	require.NoError(t, err)
	assert.True(t, tx.Succeeded())
	assert.Equal(t, uint(7), tx.Metadata.OrderID)
	assert.Equal(t, "991", tx.TransactionRef())

	_, err = ps.Verify(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestPaystackServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewPaystack("sk_test", srv.URL).Verify(context.Background(), "ref")
	assert.True(t, errors.Is(err, ErrGatewayUnavailable))
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Broadcast(eventType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
}

func newConfirmer(t *testing.T) (*Confirmer, *store.Store, *recorder) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "payment.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.New(db)
	rec := &recorder{}
	c := NewConfirmer(s, rec)
	c.Now = func() time.Time { return time.Date(2025, 9, 8, 14, 0, 0, 0, time.UTC) }
	return c, s, rec
}

func seedOrder(t *testing.T, s *store.Store, ref string, stock, qty int) (models.Order, models.Product) {
	t.Helper()
	ctx := context.Background()
	p := models.Product{Slug: "p-" + ref, Name: "Monitor", Brand: "LG", Price: decimal.NewFromInt(80000), Stock: stock}
	require.NoError(t, s.CreateProduct(ctx, &p))
	o := models.Order{
		TotalAmount:      decimal.NewFromInt(int64(80000 * qty)),
		Status:           models.OrderStatusPending,
		Name:             "Ada",
		Email:            "ada@example.com",
		DeliveryMethod:   models.DeliveryMethodPickup,
		PaymentReference: ref,
		Items:            []models.OrderItem{{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}},
	}
	require.NoError(t, s.CreateOrder(ctx, &o))
	return o, p
}

func TestFinalizeIsIdempotent(t *testing.T) {
	c, s, rec := newConfirmer(t)
	ctx := context.Background()
	order, product := seedOrder(t, s, "ref-1", 5, 2)

	done, err := c.Finalize(ctx, order.ID, "991")
	require.NoError(t, err)
	assert.True(t, done)

	for i := 0; i < 3; i++ {
		done, err = c.Finalize(ctx, order.ID, "991")
		require.NoError(t, err)
		assert.False(t, done)
	}

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.True(t, got.StockDecremented)
	assert.False(t, got.Oversold)
	assert.Equal(t, "991", got.TransactionReference)
	require.NotNil(t, got.PaidAt)

	p, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	assert.Equal(t, []string{"order.paid"}, rec.events)
}

func TestFinalizeDropsOrderedLinesFromBuyersCart(t *testing.T) {
	c, s, _ := newConfirmer(t)
	ctx := context.Background()
	monitor := models.Product{Slug: "monitor", Name: "Monitor", Brand: "LG", Price: decimal.NewFromInt(80000), Stock: 4}
	cable := models.Product{Slug: "cable", Name: "HDMI cable", Brand: "Ugreen", Price: decimal.NewFromInt(3000), Stock: 9}
	require.NoError(t, s.CreateProduct(ctx, &monitor))
	require.NoError(t, s.CreateProduct(ctx, &cable))
	require.NoError(t, s.UpsertCartItem(ctx, "u1", monitor.ID, 2))
	require.NoError(t, s.UpsertCartItem(ctx, "u1", cable.ID, 1))

	uid := "u1"
	o := models.Order{
		UserID:           &uid,
		TotalAmount:      decimal.NewFromInt(160000),
		Status:           models.OrderStatusPending,
		Name:             "Ada",
		Email:            "ada@example.com",
		DeliveryMethod:   models.DeliveryMethodPickup,
		PaymentReference: "ref-cart",
		Items:            []models.OrderItem{{ProductID: monitor.ID, Quantity: 2, UnitPrice: monitor.Price}},
	}
	require.NoError(t, s.CreateOrder(ctx, &o))

	// unpaid: the cart is untouched
	lines, err := s.ListCart(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	done, err := c.Finalize(ctx, o.ID, "771")
	require.NoError(t, err)
	require.True(t, done)

	lines, err = s.ListCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, cable.ID, lines[0].ProductID)
}

func TestFinalizeConcurrentCallersDecrementOnce(t *testing.T) {
	c, s, _ := newConfirmer(t)
	ctx := context.Background()
	order, product := seedOrder(t, s, "ref-2", 10, 3)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := c.Finalize(ctx, order.ID, "")
			assert.NoError(t, err)
			if done {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	p, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
}

func TestFinalizeOversold(t *testing.T) {
	c, s, _ := newConfirmer(t)
	ctx := context.Background()
	order, product := seedOrder(t, s, "ref-3", 1, 2)

	done, err := c.Finalize(ctx, order.ID, "")
	require.NoError(t, err)
	assert.True(t, done)

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.True(t, got.Oversold)

	p, err := s.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestFinalizeByReference(t *testing.T) {
	c, s, _ := newConfirmer(t)
	ctx := context.Background()
	order, _ := seedOrder(t, s, "ref-4", 3, 1)

	id, done, err := c.FinalizeByReference(ctx, "ref-4", "")
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)
	assert.True(t, done)

	_, _, err = c.FinalizeByReference(ctx, "nope", "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = c.Finalize(ctx, 9999, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
