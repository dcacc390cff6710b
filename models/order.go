package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type DeliveryStatus string

const (
	// Payment lifecycle: pending -> paid, never reversed automatically
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"

	// Delivery lifecycle, set by admins after payment
	DeliveryStatusProcessing DeliveryStatus = "processing"
	DeliveryStatusShipped    DeliveryStatus = "shipped"
	DeliveryStatusDelivered  DeliveryStatus = "delivered"
	DeliveryStatusCancelled  DeliveryStatus = "cancelled"
)

type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	UserID               *string         `gorm:"index" json:"user_id,omitempty"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status               OrderStatus     `gorm:"type:VARCHAR(20);default:'pending';index" json:"status"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	Phone                string          `json:"phone"`
	Address              string          `json:"address"`
	DeliveryMethod       DeliveryMethod  `gorm:"type:VARCHAR(20)" json:"delivery_method"`
	DeliveryStatus       DeliveryStatus  `gorm:"type:VARCHAR(20);default:'processing'" json:"delivery_status"`
	PaymentReference     string          `gorm:"uniqueIndex;not null" json:"reference"`
	TransactionReference string          `json:"transaction_reference,omitempty"`
	StockDecremented     bool            `gorm:"not null;default:false" json:"stock_decremented"`
	Oversold             bool            `gorm:"not null;default:false" json:"oversold"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}
