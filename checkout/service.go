package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmissionItem struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// Submission is what the client posts to create an order. UserID is empty
// for guests. ClientTotal, when set, must match the catalog-priced total.
type Submission struct {
	Details
	UserID      string           `json:"-"`
	Items       []SubmissionItem `json:"items" binding:"required,dive"`
	ClientTotal *decimal.Decimal `json:"total_amount,omitempty"`
}

type Service struct {
	Store    *store.Store
	Notifier notify.Broadcaster
	Now      func() time.Time
}

func NewService(s *store.Store, n notify.Broadcaster) *Service {
	if n == nil {
		n = notify.Discard{}
	}
	return &Service{Store: s, Notifier: n, Now: time.Now}
}

// Submit prices the submission from the catalog and stores a pending order
// with all of its items in one transaction. Neither the user's server cart
// nor stock is touched until payment.
func (s *Service) Submit(ctx context.Context, sub Submission) (models.Order, error) {
	if err := ValidateDetails(sub.Details); err != nil {
		return models.Order{}, err
	}
	if len(sub.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	quantities := make(map[uint]int)
	var order []uint
	for _, it := range sub.Items {
		if it.Quantity < 1 {
			return models.Order{}, &ValidationError{Fields: []string{fmt.Sprintf("quantity for product %d", it.ProductID)}}
		}
		if _, seen := quantities[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		quantities[it.ProductID] += it.Quantity
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(order))
	var issues []StockIssue
	for _, id := range order {
		p, err := s.Store.GetProduct(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
		}
		if err != nil {
			return models.Order{}, &RetryableError{ProductID: id, Err: err}
		}
		q := quantities[id]
		if p.Stock < q {
			issues = append(issues, StockIssue{ProductID: id, Name: p.Name, Requested: q, Available: max(p.Stock, 0)})
			continue
		}
		items = append(items, models.OrderItem{ProductID: id, Quantity: q, UnitPrice: p.Price})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(q))))
	}
	if len(issues) > 0 {
		return models.Order{}, &StockError{Issues: issues}
	}
	if sub.ClientTotal != nil && !sub.ClientTotal.Equal(total) {
		return models.Order{}, fmt.Errorf("%w: client sent %s, catalog says %s", ErrTotalMismatch, sub.ClientTotal, total)
	}

	o := models.Order{
		Items:            items,
		TotalAmount:      total,
		Status:           models.OrderStatusPending,
		Name:             sub.Name,
		Email:            sub.Email,
		Phone:            sub.Phone,
		Address:          sub.Address,
		DeliveryMethod:   sub.DeliveryMethod,
		DeliveryStatus:   models.DeliveryStatusProcessing,
		PaymentReference: s.reference(),
	}
	if sub.UserID != "" {
		uid := sub.UserID
		o.UserID = &uid
	}

	if err := s.Store.CreateOrder(ctx, &o); err != nil {
		return models.Order{}, fmt.Errorf("create order: %w", err)
	}
	log.Printf("🧾 order %d created (%s, total %s)", o.ID, o.PaymentReference, FormatAmount(total))

	s.Notifier.Broadcast(notify.OrderCreated, o)
	return o, nil
}

// reference looks like 20250908130500-<uuid>.
func (s *Service) reference() string {
	return s.Now().Format("20060102150405") + "-" + uuid.NewString()
}

// FormatAmount renders a money amount with digit grouping, e.g. 250,000.00.
func FormatAmount(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f", amount.InexactFloat64())
}
