package routes

import (
	"github.com/gin-gonic/gin"
	orderControllers "github.com/junaidrashid-git/storefront/controllers/order"
	paymentControllers "github.com/junaidrashid-git/storefront/controllers/payment"
	"github.com/junaidrashid-git/storefront/middleware"
)

// SetupOrderRoutes registers checkout submission. Guests may order too.
func SetupOrderRoutes(r *gin.Engine, d Deps) {
	orders := r.Group("/orders")
	orders.Use(middleware.OptionalToken(d.Issuer))
	{
		orders.POST("", orderControllers.PlaceOrderHandler(d.Checkout))
	}
}

// SetupPaymentRoutes registers the gateway checkout, the client callback and
// the signed webhook.
func SetupPaymentRoutes(r *gin.Engine, d Deps) {
	p := r.Group("/payment")
	{
		p.POST("/initialize",
			middleware.OptionalToken(d.Issuer),
			paymentControllers.InitializeHandler(d.Store, d.Gateway, d.Config.Paystack.Currency, d.Config.Paystack.CallbackURL),
		)
		p.POST("/verify", paymentControllers.VerifyHandler(d.Gateway, d.Confirmer))
		p.POST("/webhook",
			middleware.PaystackSignature(d.Config.Paystack.SecretKey),
			paymentControllers.WebhookHandler(d.Confirmer),
		)
	}
}
