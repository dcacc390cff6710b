package reconcile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

type fakeGateway struct {
	txs  map[string]payment.Transaction
	errs map[string]error
}

func (g *fakeGateway) Initialize(context.Context, payment.InitializeRequest) (payment.Initialization, error) {
	return payment.Initialization{}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (payment.Transaction, error) {
	if err, ok := g.errs[reference]; ok {
		return payment.Transaction{}, err
	}
	tx, ok := g.txs[reference]
	if !ok {
		return payment.Transaction{}, payment.ErrTransactionNotFound
	}
	return tx, nil
}

func newActivities(t *testing.T, g payment.Gateway) (*Activities, *store.Store) {
	t.Helper()
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "reconcile.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	s := store.New(db)
	acts := NewActivities(s, g, payment.NewConfirmer(s, notify.Discard{}))
	acts.Now = func() time.Time { return time.Now().Add(time.Hour) }
	return acts, s
}

func seedPending(t *testing.T, s *store.Store, ref string, stock, qty int) models.Order {
	t.Helper()
	ctx := context.Background()
	p := models.Product{Slug: "p-" + ref, Name: "Dock", Price: decimal.NewFromInt(5000), Stock: stock}
	require.NoError(t, s.CreateProduct(ctx, &p))
	o := models.Order{
		TotalAmount:      decimal.NewFromInt(int64(5000 * qty)),
		Status:           models.OrderStatusPending,
		Name:             "Ada",
		Email:            "ada@example.com",
		DeliveryMethod:   models.DeliveryMethodPickup,
		PaymentReference: ref,
		Items:            []models.OrderItem{{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price}},
	}
	require.NoError(t, s.CreateOrder(ctx, &o))
	return o
}

func TestReconcilePendingOrders(t *testing.T) {
	g := &fakeGateway{
		txs:  map[string]payment.Transaction{},
		errs: map[string]error{"ref-down": payment.ErrGatewayUnavailable},
	}
	acts, s := newActivities(t, g)

	paid := seedPending(t, s, "ref-paid", 5, 2)
	abandoned := seedPending(t, s, "ref-abandoned", 5, 1)
	seedPending(t, s, "ref-missing", 5, 1)
	seedPending(t, s, "ref-down", 5, 1)

	g.txs["ref-paid"] = payment.Transaction{ID: 77, Status: payment.StatusSuccess, Reference: "ref-paid", Metadata: payment.Metadata{OrderID: paid.ID}}
	g.txs["ref-abandoned"] = payment.Transaction{ID: 78, Status: "abandoned", Reference: "ref-abandoned"}

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(acts)
	env.ExecuteWorkflow(ReconcilePendingOrders, Input{OlderThan: 30 * time.Minute})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Equal(t, 4, res.Checked)
	assert.Equal(t, []uint{paid.ID}, res.Finalized)
	assert.Equal(t, 1, res.Unpaid)
	assert.Equal(t, 2, res.Failed)

	ctx := context.Background()
	got, err := s.GetOrder(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, got.Status)
	assert.Equal(t, "77", got.TransactionReference)

	product, err := s.GetProduct(ctx, got.Items[0].ProductID)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	got, err = s.GetOrder(ctx, abandoned.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestReconcileSkipsFreshOrders(t *testing.T) {
	g := &fakeGateway{txs: map[string]payment.Transaction{}}
	acts, s := newActivities(t, g)
	acts.Now = time.Now
	seedPending(t, s, "ref-fresh", 5, 1)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(acts)
	env.ExecuteWorkflow(ReconcilePendingOrders, Input{OlderThan: time.Hour})

	require.NoError(t, env.GetWorkflowError())
	var res Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Zero(t, res.Checked)
}

func TestVerifyPaymentActivity(t *testing.T) {
	g := &fakeGateway{
		txs: map[string]payment.Transaction{
			"ok": {ID: 5, Status: payment.StatusSuccess, Reference: "ok", Metadata: payment.Metadata{OrderID: 9}},
		},
	}
	acts, _ := newActivities(t, g)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts)

	val, err := env.ExecuteActivity(acts.VerifyPayment, "ok")
	require.NoError(t, err)
	var v Verification
	require.NoError(t, val.Get(&v))
	assert.True(t, v.Paid)
	assert.Equal(t, uint(9), v.OrderID)
	assert.Equal(t, "5", v.TransactionRef)

	_, err = env.ExecuteActivity(acts.VerifyPayment, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transaction for reference nope")
}
