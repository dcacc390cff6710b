// Package checkout validates a cart against live stock before it becomes
// an order, and turns a submission into a pending order on the server.
package checkout

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/models"
	"gorm.io/gorm"
)

// Details is the contact and delivery information collected at checkout.
type Details struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Address        string                `json:"address"`
	DeliveryMethod models.DeliveryMethod `json:"delivery_method"`
}

type Validator struct {
	Stock cart.StockReader
}

// Validate checks every line against current stock in two phases. First
// every product is read; a failed read aborts with *RetryableError and the
// cart untouched. A product that no longer exists counts as zero stock. Then every understocked line is clamped down and the
// whole set is reported as one *StockError.
func (v *Validator) Validate(ctx context.Context, e *cart.Engine) error {
	lines := e.Lines()
	if len(lines) == 0 {
		return ErrEmptyCart
	}

	stock := make(map[uint]int, len(lines))
	for _, l := range lines {
		p, err := v.Stock.Product(ctx, l.ProductID)
		if errors.Is(err, cart.ErrProductGone) || errors.Is(err, gorm.ErrRecordNotFound) {
			stock[l.ProductID] = 0
			continue
		}
		if err != nil {
			return &RetryableError{ProductID: l.ProductID, Err: err}
		}
		stock[l.ProductID] = p.Stock
	}

	var issues []StockIssue
	for _, l := range lines {
		available := stock[l.ProductID]
		if e.ApplyStock(ctx, l.ProductID, available) {
			issues = append(issues, StockIssue{
				ProductID: l.ProductID,
				Name:      l.Name,
				Requested: l.Quantity,
				Available: max(available, 0),
			})
		}
	}
	if len(issues) > 0 {
		return &StockError{Issues: issues}
	}
	return nil
}

// ValidateDetails reports every missing field at once.
func ValidateDetails(d Details) error {
	var fields []string
	if strings.TrimSpace(d.Name) == "" {
		fields = append(fields, "name")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(d.Email)); err != nil {
		fields = append(fields, "email")
	}
	if strings.TrimSpace(d.Phone) == "" {
		fields = append(fields, "phone")
	}
	switch d.DeliveryMethod {
	case models.DeliveryMethodDelivery:
		if strings.TrimSpace(d.Address) == "" {
			fields = append(fields, "address")
		}
	case models.DeliveryMethodPickup:
	default:
		fields = append(fields, "delivery_method")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
