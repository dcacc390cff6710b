package routes

import (
	"github.com/gin-gonic/gin"
	adminController "github.com/junaidrashid-git/storefront/controllers/admin"
	cartControllers "github.com/junaidrashid-git/storefront/controllers/cart"
	orderControllers "github.com/junaidrashid-git/storefront/controllers/order"
	productcontroller "github.com/junaidrashid-git/storefront/controllers/product"
	userControllers "github.com/junaidrashid-git/storefront/controllers/user"
	"github.com/junaidrashid-git/storefront/media"
	"github.com/junaidrashid-git/storefront/middleware"
	"github.com/junaidrashid-git/storefront/models"
)

// SetupAdminRoutes registers all "/admin/*" endpoints.
func SetupAdminRoutes(r *gin.Engine, d Deps) {
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminAccess(d.Config.APIKey, d.Issuer))
	{
		// ─────────── Users ───────────
		adminGroup.GET("/admins", adminController.GetAllAdmins(d.Store))
		adminGroup.GET("/users", userControllers.GetAllUsers(d.Store))
		adminGroup.PATCH("/users/:id/role",
			middleware.RequireRole(models.RoleSuperAdmin),
			adminController.SetUserRole(d.Store),
		)
		adminGroup.GET("/user-cart/:user_id", cartControllers.GetAdminUserCart(d.Store))

		// ─────────── Products ───────────
		productAdmin := adminGroup.Group("/products")
		{
			productAdmin.GET("", productcontroller.GetProducts(d.Store))
			productAdmin.POST("", productcontroller.CreateProduct(d.Store))
			productAdmin.PUT("/:id", productcontroller.UpdateProduct(d.Store))
			productAdmin.DELETE("/:id", productcontroller.DeleteProduct(d.Store))
			productAdmin.POST("/import-excel", productcontroller.ImportProductsFromExcel(d.Store))
			productAdmin.GET("/export-excel", productcontroller.ExportProductsToExcel(d.Store))
		}
		adminGroup.POST("/uploads", media.UploadHandler(d.Media))

		// ─────────── Orders ───────────
		orderAdmin := adminGroup.Group("/orders")
		{
			orderAdmin.GET("", orderControllers.GetAllOrdersHandler(d.Store))
			orderAdmin.GET("/ws", d.Hub.Handler())
			orderAdmin.GET("/:orderID", orderControllers.GetOrderByIDHandler(d.Store))
			orderAdmin.PATCH("/:orderID/delivery", orderControllers.UpdateDeliveryStatusHandler(d.Store, d.Hub))
			orderAdmin.DELETE("/:orderID", orderControllers.DeleteOrderHandler(d.Store, d.Hub))
		}
	}
}
