package checkout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubStock struct {
	stock map[uint]int
	fail  map[uint]bool
	gone  map[uint]error
}

func (s stubStock) Product(_ context.Context, id uint) (cart.Product, error) {
	if s.fail[id] {
		return cart.Product{}, errors.New("timeout")
	}
	if err := s.gone[id]; err != nil {
		return cart.Product{}, err
	}
	return cart.Product{ID: id, Stock: s.stock[id]}, nil
}

func engineWith(t *testing.T, lines ...cart.Product) *cart.Engine {
	t.Helper()
	e := cart.New(cart.Options{})
	e.SetIdentity(context.Background(), cart.Guest())
	for _, p := range lines {
		require.NoError(t, e.AddLine(context.Background(), p, p.Stock))
	}
	return e
}

func TestValidate_EmptyCart(t *testing.T) {
	v := Validator{Stock: stubStock{}}
	assert.ErrorIs(t, v.Validate(context.Background(), engineWith(t)), ErrEmptyCart)
}

func TestValidate_Passes(t *testing.T) {
	e := engineWith(t, cart.Product{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(900), Stock: 2})
	v := Validator{Stock: stubStock{stock: map[uint]int{1: 5}}}

	require.NoError(t, v.Validate(context.Background(), e))
	assert.Equal(t, 5, e.Lines()[0].MaxStock)
	assert.Equal(t, 2, e.Lines()[0].Quantity)
}

func TestValidate_ReadFailureChangesNothing(t *testing.T) {
	e := engineWith(t,
		cart.Product{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(900), Stock: 4},
		cart.Product{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(20), Stock: 3},
	)
	before := e.Lines()
	v := Validator{Stock: stubStock{stock: map[uint]int{1: 1}, fail: map[uint]bool{2: true}}}

	err := v.Validate(context.Background(), e)
	var retry *RetryableError
	require.ErrorAs(t, err, &retry)
	assert.Equal(t, uint(2), retry.ProductID)
	assert.Equal(t, before, e.Lines())
}

func TestValidate_ClampsEveryShortLine(t *testing.T) {
	e := engineWith(t,
		cart.Product{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(900), Stock: 4},
		cart.Product{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(20), Stock: 3},
		cart.Product{ID: 3, Name: "Dock", Price: decimal.NewFromInt(150), Stock: 1},
	)
	v := Validator{Stock: stubStock{stock: map[uint]int{1: 1, 2: 0, 3: 9}}}

	err := v.Validate(context.Background(), e)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Issues, 2)
	assert.Equal(t, StockIssue{ProductID: 1, Name: "Laptop", Requested: 4, Available: 1}, stockErr.Issues[0])
	assert.Equal(t, StockIssue{ProductID: 2, Name: "Mouse", Requested: 3, Available: 0}, stockErr.Issues[1])
	assert.Contains(t, err.Error(), "only 1 of Laptop left")
	assert.Contains(t, err.Error(), "Mouse is out of stock")

	byID := map[uint]int{}
	for _, l := range e.Lines() {
		byID[l.ProductID] = l.Quantity
	}
	assert.Equal(t, map[uint]int{1: 1, 3: 1}, byID)

	// second pass is clean
	require.NoError(t, v.Validate(context.Background(), e))
}

func TestValidate_DeletedProductsAreRemoved(t *testing.T) {
	e := engineWith(t,
		cart.Product{ID: 1, Name: "Laptop", Price: decimal.NewFromInt(900), Stock: 2},
		cart.Product{ID: 2, Name: "Mouse", Price: decimal.NewFromInt(20), Stock: 3},
		cart.Product{ID: 3, Name: "Dock", Price: decimal.NewFromInt(150), Stock: 1},
	)
	v := Validator{Stock: stubStock{
		stock: map[uint]int{1: 5},
		gone: map[uint]error{
			2: fmt.Errorf("lookup: %w", cart.ErrProductGone),
			3: gorm.ErrRecordNotFound,
		},
	}}

	err := v.Validate(context.Background(), e)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Issues, 2)
	assert.Equal(t, StockIssue{ProductID: 2, Name: "Mouse", Requested: 3, Available: 0}, stockErr.Issues[0])
	assert.Equal(t, StockIssue{ProductID: 3, Name: "Dock", Requested: 1, Available: 0}, stockErr.Issues[1])

	require.Len(t, e.Lines(), 1)
	assert.Equal(t, uint(1), e.Lines()[0].ProductID)

	require.NoError(t, v.Validate(context.Background(), e))
}

func TestValidateDetails(t *testing.T) {
	err := ValidateDetails(Details{Email: "not-an-email", DeliveryMethod: models.DeliveryMethodDelivery})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"name", "email", "phone", "address"}, verr.Fields)

	assert.NoError(t, ValidateDetails(Details{
		Name: "Ada", Email: "ada@example.com", Phone: "+2348000000000", DeliveryMethod: models.DeliveryMethodPickup,
	}))

	err = ValidateDetails(Details{Name: "Ada", Email: "ada@example.com", Phone: "1", DeliveryMethod: "drone"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"delivery_method"}, verr.Fields)
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

func newService(t *testing.T) (*Service, *store.Store, *recorder) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	s := store.New(db)
	rec := &recorder{}
	svc := NewService(s, rec)
	svc.Now = func() time.Time { return time.Date(2025, 9, 8, 13, 5, 0, 0, time.UTC) }
	return svc, s, rec
}

func seed(t *testing.T, s *store.Store, slug, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Slug: slug, Name: slug, Brand: "HP", Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, s.CreateProduct(context.Background(), &p))
	return p
}

var details = Details{
	Name:           "Ada Obi",
	Email:          "ada@example.com",
	Phone:          "+2348000000000",
	Address:        "12 Allen Ave, Ikeja",
	DeliveryMethod: models.DeliveryMethodDelivery,
}

func TestSubmit_CreatesPendingOrder(t *testing.T) {
	svc, s, rec := newService(t)
	ctx := context.Background()
	laptop := seed(t, s, "elitebook", "450000.00", 5)
	bag := seed(t, s, "bag", "15000.50", 2)

	require.NoError(t, s.UpsertCartItem(ctx, "u1", laptop.ID, 1))

	total := decimal.RequireFromString("481001")
	order, err := svc.Submit(ctx, Submission{
		Details: details,
		UserID:  "u1",
		Items: []SubmissionItem{
			{ProductID: laptop.ID, Quantity: 1},
			{ProductID: bag.ID, Quantity: 1},
			{ProductID: bag.ID, Quantity: 1},
		},
		ClientTotal: &total,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Regexp(t, `^20250908130500-[0-9a-f-]{36}$`, order.PaymentReference)
	require.NotNil(t, order.UserID)
	assert.Equal(t, "u1", *order.UserID)

	stored, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 2, stored.Items[1].Quantity)
	assert.True(t, total.Equal(stored.TotalAmount))

	// the cart survives until the order is paid
	cartRows, err := s.ListCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cartRows, 1)
	assert.Equal(t, laptop.ID, cartRows[0].ProductID)

	// stock is only taken on payment
	p, err := s.GetProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	assert.Equal(t, []string{"order.created"}, rec.events)
}

func TestSubmit_Rejections(t *testing.T) {
	svc, s, _ := newService(t)
	ctx := context.Background()
	laptop := seed(t, s, "elitebook", "450000.00", 1)

	_, err := svc.Submit(ctx, Submission{Details: details})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Submit(ctx, Submission{Details: details, Items: []SubmissionItem{{ProductID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = svc.Submit(ctx, Submission{Details: details, Items: []SubmissionItem{{ProductID: laptop.ID, Quantity: 2}}})
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Issues[0].Available)

	wrong := decimal.NewFromInt(1)
	_, err = svc.Submit(ctx, Submission{Details: details, Items: []SubmissionItem{{ProductID: laptop.ID, Quantity: 1}}, ClientTotal: &wrong})
	assert.ErrorIs(t, err, ErrTotalMismatch)

	_, err = svc.Submit(ctx, Submission{Items: []SubmissionItem{{ProductID: laptop.ID, Quantity: 1}}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "250,000.00", FormatAmount(decimal.NewFromInt(250000)))
}
