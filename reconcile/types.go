// Package reconcile finalizes orders whose payment went through but whose
// webhook and client callback both never arrived. A Temporal workflow lists
// stale pending orders, asks the gateway about each one, and finalizes the
// ones the gateway reports as paid.
package reconcile

import "time"

const (
	WorkflowID       = "reconcile-pending-orders"
	DefaultTaskQueue = "storefront-reconcile"
	DefaultSchedule  = "*/15 * * * *"
)

type Input struct {
	OlderThan time.Duration
	Limit     int
}

// PendingOrder is what the workflow needs to know about one order.
type PendingOrder struct {
	ID        uint
	Reference string
}

// Verification is the gateway's answer for one reference.
type Verification struct {
	Paid           bool
	Status         string
	OrderID        uint
	TransactionRef string
}

type Result struct {
	Checked   int
	Finalized []uint
	Unpaid    int
	Failed    int
}

// PermanentError is returned by activities for failures a retry cannot
// fix. The retry policy lists it by type name.
type PermanentError struct {
	Msg string
}

func (e *PermanentError) Error() string {
	return e.Msg
}
