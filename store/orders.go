package store

import (
	"context"
	"time"

	"github.com/junaidrashid-git/storefront/models"
	"gorm.io/gorm"
)

// CreateOrder inserts the order and its items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return s.Transaction(ctx, func(tx *Store) error {
		items := order.Items
		order.Items = nil
		if err := tx.db.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.db.Create(&items).Error; err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
}

func (s *Store) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := s.conn(ctx).Preload("Items").First(&order, "id = ?", id).Error
	return order, err
}

func (s *Store) FindOrderByReference(ctx context.Context, reference string) (models.Order, error) {
	var order models.Order
	err := s.conn(ctx).Preload("Items").Where("payment_reference = ?", reference).First(&order).Error
	return order, err
}

// ListOrders returns every order with its items, oldest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).Preload("Items").Order("id ASC").Find(&orders).Error
	return orders, err
}

func (s *Store) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListStalePendingOrders returns pending orders created before cutoff. A
// limit <= 0 means 100.
func (s *Store) ListStalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := s.conn(ctx).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, cutoff).
		Order("id ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// MarkOrderPaid sets status to paid only if the order is still pending.
// It reports whether this call made the transition.
func (s *Store) MarkOrderPaid(ctx context.Context, id uint, txRef string, at time.Time) (bool, error) {
	updates := map[string]interface{}{
		"status":  models.OrderStatusPaid,
		"paid_at": at,
	}
	if txRef != "" {
		updates["transaction_reference"] = txRef
	}
	result := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ClaimStockDecrement flips the per-order stock marker. Only the caller that
// flips it may decrement stock for the order.
func (s *Store) ClaimStockDecrement(ctx context.Context, id uint) (bool, error) {
	result := s.conn(ctx).Model(&models.Order{}).
		Where("id = ? AND stock_decremented = ?", id, false).
		UpdateColumn("stock_decremented", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *Store) FlagOversold(ctx context.Context, id uint) error {
	return s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).UpdateColumn("oversold", true).Error
}

func (s *Store) UpdateDeliveryStatus(ctx context.Context, id uint, status models.DeliveryStatus) error {
	result := s.conn(ctx).Model(&models.Order{}).Where("id = ?", id).Update("delivery_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrder removes the order's items first, then the order.
func (s *Store) DeleteOrder(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		result := tx.db.Where("id = ?", id).Delete(&models.Order{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
