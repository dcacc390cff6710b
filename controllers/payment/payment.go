package paymentControllers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/store"
	"gorm.io/gorm"
)

// WebhookHandler is POST /payment/webhook. The signature has already been
// checked by middleware.PaystackSignature.
func WebhookHandler(confirmer *payment.Confirmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		var event payment.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
			return
		}
		if event.Event != payment.EventChargeSuccess {
			c.JSON(http.StatusOK, gin.H{"message": "event ignored", "event": event.Event})
			return
		}

		ctx := c.Request.Context()
		orderID := event.Data.Metadata.OrderID
		var done bool
		switch {
		case orderID != 0:
			done, err = confirmer.Finalize(ctx, orderID, event.Data.TransactionRef())
		case event.Data.Reference != "":
			orderID, done, err = confirmer.FinalizeByReference(ctx, event.Data.Reference, event.Data.TransactionRef())
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing order id"})
			return
		}
		if errors.Is(err, payment.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			log.Printf("❌ webhook finalize for order %d failed: %v", orderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "ok", "order_id": orderID, "finalized": done})
	}
}

type verifyInput struct {
	Reference string `json:"reference" binding:"required"`
}

// VerifyHandler is POST /payment/verify, called by the client after the
// gateway redirects back. It trusts only what the gateway reports.
func VerifyHandler(gateway payment.Gateway, confirmer *payment.Confirmer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input verifyInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
			return
		}

		ctx := c.Request.Context()
		tx, err := gateway.Verify(ctx, input.Reference)
		if errors.Is(err, payment.ErrTransactionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
			return
		}
		if err != nil {
			log.Printf("❌ verify %s: %v", input.Reference, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not verify payment"})
			return
		}
		if !tx.Succeeded() {
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment not successful", "status": tx.Status})
			return
		}

		orderID := tx.Metadata.OrderID
		var done bool
		if orderID != 0 {
			done, err = confirmer.Finalize(ctx, orderID, tx.TransactionRef())
		} else {
			orderID, done, err = confirmer.FinalizeByReference(ctx, tx.Reference, tx.TransactionRef())
		}
		if errors.Is(err, payment.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to confirm payment"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    models.OrderStatusPaid,
			"order_id":  orderID,
			"finalized": done,
		})
	}
}

type initializeInput struct {
	OrderID uint `json:"order_id" binding:"required"`
}

// InitializeHandler is POST /payment/initialize: it opens a gateway checkout
// for a pending order, using the order's own payment reference. An order
// placed by a signed-in user can only be paid for by that user.
func InitializeHandler(s *store.Store, gateway payment.Gateway, currency, callbackURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input initializeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
			return
		}

		ctx := c.Request.Context()
		order, err := s.GetOrder(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order"})
			return
		}
		if order.UserID != nil && *order.UserID != middleware.UserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "order belongs to another user"})
			return
		}
		if order.Status != models.OrderStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": "order is already paid"})
			return
		}

		init, err := gateway.Initialize(ctx, payment.InitializeRequest{
			Email:       order.Email,
			Amount:      order.TotalAmount,
			Currency:    currency,
			Reference:   order.PaymentReference,
			CallbackURL: callbackURL,
			OrderID:     order.ID,
		})
		if err != nil {
			log.Printf("❌ initialize payment for order %d: %v", order.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not start payment"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"authorization_url": init.AuthorizationURL,
			"access_code":       init.AccessCode,
			"reference":         order.PaymentReference,
		})
	}
}
