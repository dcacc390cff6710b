package store

import (
	"context"
	"time"

	"github.com/junaidrashid-git/storefront/models"
	"gorm.io/gorm/clause"
)

// ListCart returns the user's remote cart joined with live product fields.
// Rows pointing at deleted products are skipped.
func (s *Store) ListCart(ctx context.Context, userID string) ([]models.CartLineView, error) {
	var items []models.CartItem
	if err := s.conn(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	lines := make([]models.CartLineView, 0, len(items))
	for _, item := range items {
		if item.Product.ID == 0 {
			continue
		}
		lines = append(lines, models.CartLineView{
			ProductID: item.ProductID,
			Name:      item.Product.Name,
			Brand:     item.Product.Brand,
			Price:     item.Product.Price,
			Stock:     item.Product.Stock,
			Image:     item.Product.PrimaryImage(),
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// UpsertCartItem writes quantity for (userID, productID); last write wins.
func (s *Store) UpsertCartItem(ctx context.Context, userID string, productID uint, quantity int) error {
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(&item).Error
}

// DeleteCartItem removes one row. Deleting a missing row is not an error.
func (s *Store) DeleteCartItem(ctx context.Context, userID string, productID uint) error {
	return s.conn(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

// RemoveCartProducts deletes the user's rows for the given products.
func (s *Store) RemoveCartProducts(ctx context.Context, userID string, productIDs []uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	return s.conn(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&models.CartItem{}).Error
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	return s.conn(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
