package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is the server-side mirror of one line of a signed-in user's cart.
// Name, price, stock and image are joined from Product at read time.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"user_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_cart_user_product;not null" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLineView is a CartItem joined with live product fields.
type CartLineView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}
