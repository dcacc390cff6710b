package middleware

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/payment"
)

const maxWebhookBody = 1 << 20

// PaystackSignature verifies x-paystack-signature against the raw body
// before the webhook handler runs, then restores the body for it.
func PaystackSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			c.Abort()
			return
		}

		if err := payment.VerifySignature(secret, body, c.GetHeader("x-paystack-signature")); err != nil {
			log.Printf("⚠️ rejected webhook from %s: %v", c.ClientIP(), err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			c.Abort()
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}
