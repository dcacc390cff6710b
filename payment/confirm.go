// Package payment confirms orders once the gateway reports a successful
// charge. Both the shopper's callback and the gateway webhook end up in
// Confirmer.Finalize, which may run any number of times per order.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/store"
	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

type Confirmer struct {
	Store    *store.Store
	Notifier notify.Broadcaster
	Now      func() time.Time
}

func NewConfirmer(s *store.Store, n notify.Broadcaster) *Confirmer {
	if n == nil {
		n = notify.Discard{}
	}
	return &Confirmer{Store: s, Notifier: n, Now: time.Now}
}

// Finalize marks the order paid, takes its items out of stock and drops
// them from the buyer's server cart, all in one transaction. The status flip is conditional on pending and the stock
// decrement is guarded by the order's stock marker, so repeated or
// concurrent calls do the work once. It reports whether this call did it.
//
// An item whose stock can no longer cover it drives stock to zero and
// flags the order oversold; the payment has already been taken.
func (c *Confirmer) Finalize(ctx context.Context, orderID uint, txRef string) (bool, error) {
	var (
		done     bool
		oversold bool
		order    models.Order
	)
	err := c.Store.Transaction(ctx, func(tx *store.Store) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}

		done, err = tx.MarkOrderPaid(ctx, orderID, txRef, c.Now())
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if done && order.UserID != nil {
			ids := make([]uint, 0, len(order.Items))
			for _, item := range order.Items {
				ids = append(ids, item.ProductID)
			}
			if err := tx.RemoveCartProducts(ctx, *order.UserID, ids); err != nil {
				return fmt.Errorf("clear cart: %w", err)
			}
		}

		claimed, err := tx.ClaimStockDecrement(ctx, orderID)
		if err != nil {
			return fmt.Errorf("claim stock decrement: %w", err)
		}
		if !claimed {
			return nil
		}

		for _, item := range order.Items {
			err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			switch {
			case err == nil:
			case errors.Is(err, store.ErrInsufficientStock):
				log.Printf("⚠️ order %d oversold product %d (wanted %d)", orderID, item.ProductID, item.Quantity)
				if err := tx.ZeroStock(ctx, item.ProductID); err != nil {
					return err
				}
				oversold = true
			case errors.Is(err, gorm.ErrRecordNotFound):
				log.Printf("⚠️ order %d references deleted product %d", orderID, item.ProductID)
				oversold = true
			default:
				return fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
			}
		}
		if oversold {
			return tx.FlagOversold(ctx, orderID)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if done {
		log.Printf("✅ order %d paid (%s)", orderID, order.PaymentReference)
		order.Status = models.OrderStatusPaid
		order.StockDecremented = true
		order.Oversold = oversold
		c.Notifier.Broadcast(notify.OrderPaid, order)
	}
	return done, nil
}

// FinalizeByReference looks the order up by its payment reference.
func (c *Confirmer) FinalizeByReference(ctx context.Context, reference, txRef string) (uint, bool, error) {
	order, err := c.Store.FindOrderByReference(ctx, reference)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, ErrOrderNotFound
	}
	if err != nil {
		return 0, false, err
	}
	done, err := c.Finalize(ctx, order.ID, txRef)
	return order.ID, done, err
}
