package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/store"
	"go.temporal.io/sdk/activity"
)

type Activities struct {
	Store     *store.Store
	Gateway   payment.Gateway
	Confirmer *payment.Confirmer
	Now       func() time.Time
}

func NewActivities(s *store.Store, gateway payment.Gateway, confirmer *payment.Confirmer) *Activities {
	return &Activities{Store: s, Gateway: gateway, Confirmer: confirmer, Now: time.Now}
}

// ListStalePending returns pending orders created more than OlderThan ago,
// oldest first.
func (a *Activities) ListStalePending(ctx context.Context, in Input) ([]PendingOrder, error) {
	logger := activity.GetLogger(ctx)
	cutoff := a.Now().Add(-in.OlderThan)

	orders, err := a.Store.ListStalePendingOrders(ctx, cutoff, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	out := make([]PendingOrder, 0, len(orders))
	for _, o := range orders {
		out = append(out, PendingOrder{ID: o.ID, Reference: o.PaymentReference})
	}
	logger.Info("Stale pending orders", "count", len(out), "cutoff", cutoff)
	return out, nil
}

// VerifyPayment asks the gateway about one reference. An unknown reference
// is permanent; an unreachable gateway is retried.
func (a *Activities) VerifyPayment(ctx context.Context, reference string) (Verification, error) {
	logger := activity.GetLogger(ctx)

	tx, err := a.Gateway.Verify(ctx, reference)
	if errors.Is(err, payment.ErrTransactionNotFound) {
		return Verification{}, &PermanentError{Msg: "no transaction for reference " + reference}
	}
	if err != nil {
		logger.Warn("Gateway verify failed", "reference", reference, "error", err)
		return Verification{}, err
	}
	return Verification{
		Paid:           tx.Succeeded(),
		Status:         tx.Status,
		OrderID:        tx.Metadata.OrderID,
		TransactionRef: tx.TransactionRef(),
	}, nil
}

// FinalizeOrder marks the order paid and decrements stock, at most once.
func (a *Activities) FinalizeOrder(ctx context.Context, orderID uint, txRef string) (bool, error) {
	done, err := a.Confirmer.Finalize(ctx, orderID, txRef)
	if errors.Is(err, payment.ErrOrderNotFound) {
		return false, &PermanentError{Msg: fmt.Sprintf("order %d no longer exists", orderID)}
	}
	if err != nil {
		return false, err
	}
	activity.GetLogger(ctx).Info("Order finalized", "orderID", orderID, "changed", done)
	return done, nil
}
