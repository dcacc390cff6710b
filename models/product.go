package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductSpecs holds the laptop spec sheet shown on the product page.
type ProductSpecs struct {
	Display string `json:"display"`
	RAM     string `json:"ram"`
	Storage string `json:"storage"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug        string          `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string          `gorm:"not null" json:"name"`
	Brand       string          `gorm:"index" json:"brand"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int             `gorm:"not null;default:0" json:"stock"` // authoritative, only decremented by paid orders
	Images      []string        `gorm:"type:text;serializer:json" json:"image_url"`
	Description string          `json:"description,omitempty"`
	Specs       ProductSpecs    `gorm:"embedded;embeddedPrefix:spec_" json:"specs"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PrimaryImage returns the first image or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
