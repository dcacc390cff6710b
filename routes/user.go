package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/junaidrashid-git/storefront/controllers/cart"
	orderControllers "github.com/junaidrashid-git/storefront/controllers/order"
	productcontroller "github.com/junaidrashid-git/storefront/controllers/product"
	userControllers "github.com/junaidrashid-git/storefront/controllers/user"
	"github.com/junaidrashid-git/storefront/middleware"
)

// SetupProductRoutes registers the public catalog.
func SetupProductRoutes(r *gin.Engine, d Deps) {
	products := r.Group("/products")
	{
		products.GET("", productcontroller.GetProducts(d.Store))
		products.GET("/:id", productcontroller.GetProductByID(d.Store))
		products.GET("/slug/:slug", productcontroller.GetProductBySlug(d.Store))
	}
}

// SetupUserRoutes registers all "/user/*" endpoints. Requires a signed-in
// (non-guest) token.
func SetupUserRoutes(r *gin.Engine, d Deps) {
	userGroup := r.Group("/user")
	userGroup.Use(middleware.ValidateToken(d.Issuer), middleware.RequireUser())
	{
		// ──────────────── User Profile ────────────────
		userGroup.GET("", userControllers.GetUser(d.Store))
		userGroup.PUT("", userControllers.UpdateUser(d.Store))

		// ──────────────── Remote cart mirror ────────────────
		cartGroup := userGroup.Group("/cart")
		{
			cartGroup.GET("", cartControllers.GetUserCart(d.Store))
			cartGroup.POST("", cartControllers.UpsertCartItem(d.Store))
			cartGroup.DELETE("/:product_id", cartControllers.DeleteCartItem(d.Store))
			cartGroup.DELETE("", cartControllers.ClearUserCart(d.Store))
		}

		// ──────────────── Dashboard ────────────────
		userGroup.GET("/orders", orderControllers.GetUserOrdersHandler(d.Store))
	}
}
