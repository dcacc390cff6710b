package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/auth"
)

// SetupAuthRoutes registers all "/auth/*" endpoints.
func SetupAuthRoutes(r *gin.Engine, d Deps) {
	h := &auth.Handlers{
		Store:           d.Store,
		Verifier:        d.Verifier,
		Issuer:          d.Issuer,
		SuperAdminEmail: d.Config.SuperAdminEmail,
	}
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/google-user", h.GoogleUserLogin)
		authGroup.POST("/google-admin", h.GoogleAdminLogin)
		authGroup.POST("/guest", h.Guest)
	}
}
