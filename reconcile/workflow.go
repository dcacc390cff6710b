package reconcile

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ReconcilePendingOrders checks every stale pending order with the gateway
// and finalizes the paid ones. One order failing does not stop the rest.
func ReconcilePendingOrders(ctx workflow.Context, in Input) (Result, error) {
	logger := workflow.GetLogger(ctx)

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:        1 * time.Second,
		BackoffCoefficient:     2.0,
		MaximumInterval:        30 * time.Second,
		MaximumAttempts:        5,
		NonRetryableErrorTypes: []string{"PermanentError"},
	}
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         retryPolicy,
	})

	var a *Activities
	var result Result

	var pending []PendingOrder
	if err := workflow.ExecuteActivity(ctx, a.ListStalePending, in).Get(ctx, &pending); err != nil {
		return result, err
	}

	for _, o := range pending {
		result.Checked++

		var v Verification
		if err := workflow.ExecuteActivity(ctx, a.VerifyPayment, o.Reference).Get(ctx, &v); err != nil {
			logger.Warn("Verify failed", "orderID", o.ID, "error", err)
			result.Failed++
			continue
		}
		if !v.Paid {
			result.Unpaid++
			continue
		}
		if v.OrderID != 0 && v.OrderID != o.ID {
			logger.Warn("Gateway metadata points at another order", "orderID", o.ID, "metadataOrderID", v.OrderID)
			result.Failed++
			continue
		}

		var changed bool
		if err := workflow.ExecuteActivity(ctx, a.FinalizeOrder, o.ID, v.TransactionRef).Get(ctx, &changed); err != nil {
			logger.Error("Finalize failed", "orderID", o.ID, "error", err)
			result.Failed++
			continue
		}
		if changed {
			result.Finalized = append(result.Finalized, o.ID)
		}
	}

	logger.Info("Reconcile done", "checked", result.Checked, "finalized", len(result.Finalized), "failed", result.Failed)
	return result, nil
}
