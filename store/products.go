package store

import (
	"context"
	"errors"

	"github.com/junaidrashid-git/storefront/models"
	"gorm.io/gorm"
)

func (s *Store) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var product models.Product
	err := s.conn(ctx).First(&product, "id = ?", id).Error
	return product, err
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	var product models.Product
	err := s.conn(ctx).Where("slug = ?", slug).First(&product).Error
	return product, err
}

// ListProducts returns products newest first, optionally limited to one brand.
func (s *Store) ListProducts(ctx context.Context, brand string) ([]models.Product, error) {
	query := s.conn(ctx).Model(&models.Product{})
	if brand != "" {
		query = query.Where("LOWER(brand) = LOWER(?)", brand)
	}
	var products []models.Product
	if err := query.Order("created_at DESC").Order("id DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.conn(ctx).Create(p).Error
}

func (s *Store) SaveProduct(ctx context.Context, p *models.Product) error {
	return s.conn(ctx).Save(p).Error
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	result := s.conn(ctx).Delete(&models.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock atomically removes qty units from a product. The update is
// conditional on enough stock; otherwise ErrInsufficientStock is returned and
// nothing changes.
func (s *Store) DecrementStock(ctx context.Context, productID uint, qty int) error {
	if qty <= 0 {
		return nil
	}
	result := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetProduct(ctx, productID); errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return ErrInsufficientStock
	}
	return nil
}

// ZeroStock sets a product's stock to zero. Used when a paid order could not
// be fully covered.
func (s *Store) ZeroStock(ctx context.Context, productID uint) error {
	return s.conn(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", 0).Error
}
