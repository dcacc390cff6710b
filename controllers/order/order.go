package orderControllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/store"
	"gorm.io/gorm"
)

type UpdateDeliveryInput struct {
	DeliveryStatus string `json:"delivery_status" binding:"required"`
}

func mapDeliveryStatus(status string) (models.DeliveryStatus, error) {
	switch models.DeliveryStatus(strings.ToLower(strings.TrimSpace(status))) {
	case models.DeliveryStatusProcessing:
		return models.DeliveryStatusProcessing, nil
	case models.DeliveryStatusShipped:
		return models.DeliveryStatusShipped, nil
	case models.DeliveryStatusDelivered:
		return models.DeliveryStatusDelivered, nil
	case models.DeliveryStatusCancelled:
		return models.DeliveryStatusCancelled, nil
	default:
		return "", errors.New("invalid delivery status")
	}
}

// POST /orders. Guests and signed-in users alike. The server cart is left
// alone until the order is paid.
func PlaceOrderHandler(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub checkout.Submission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		sub.UserID = middleware.UserID(c)

		order, err := svc.Submit(c.Request.Context(), sub)
		if err != nil {
			writeSubmitError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":   "Order created",
			"order_id":  order.ID,
			"reference": order.PaymentReference,
			"total":     order.TotalAmount,
			"order":     order,
		})
	}
}

func writeSubmitError(c *gin.Context, err error) {
	var (
		stockErr *checkout.StockError
		valErr   *checkout.ValidationError
		retryErr *checkout.RetryableError
	)
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": valErr.Fields})
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrUnknownProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "issues": stockErr.Issues})
	case errors.Is(err, checkout.ErrTotalMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &retryErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ order submission failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
	}
}

// GET /admin/orders
func GetAllOrdersHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := s.ListOrders(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /user/orders
func GetUserOrdersHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := s.ListUserOrders(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /admin/orders/:orderID
func GetOrderByIDHandler(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		order, err := s.GetOrder(c.Request.Context(), id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /admin/orders/:orderID/delivery
func UpdateDeliveryStatusHandler(s *store.Store, hub notify.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		var input UpdateDeliveryInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		status, err := mapDeliveryStatus(input.DeliveryStatus)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = s.UpdateDeliveryStatus(c.Request.Context(), id, status)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery status"})
			return
		}

		hub.Broadcast(notify.OrderDeliveryUpdated, gin.H{"order_id": id, "delivery_status": status})
		c.JSON(http.StatusOK, gin.H{"message": "Delivery status updated", "delivery_status": status})
	}
}

// DELETE /admin/orders/:orderID removes the items first, then the order.
func DeleteOrderHandler(s *store.Store, hub notify.Broadcaster) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := orderID(c)
		if !ok {
			return
		}
		err := s.DeleteOrder(c.Request.Context(), id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
			return
		}

		log.Printf("🗑️ order %d deleted", id)
		hub.Broadcast(notify.OrderDeleted, gin.H{"order_id": id})
		c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
	}
}

func orderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("orderID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return uint(id), true
}
