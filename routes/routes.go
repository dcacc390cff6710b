package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/config"
	"github.com/junaidrashid-git/storefront/media"
	"github.com/junaidrashid-git/storefront/notify"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/junaidrashid-git/storefront/store"
)

// Deps is everything the handlers need.
type Deps struct {
	Config    config.Config
	Store     *store.Store
	Issuer    *auth.Issuer
	Verifier  auth.TokenVerifier
	Gateway   payment.Gateway
	Hub       *notify.Hub
	Media     media.Storage
	Checkout  *checkout.Service
	Confirmer *payment.Confirmer
}

// NewDeps fills in the services built from the store, config and hub.
func NewDeps(cfg config.Config, s *store.Store, verifier auth.TokenVerifier, gateway payment.Gateway) Deps {
	hub := notify.NewHub()
	return Deps{
		Config:    cfg,
		Store:     s,
		Issuer:    auth.NewIssuer(cfg.JWTSecret, 24*time.Hour),
		Verifier:  verifier,
		Gateway:   gateway,
		Hub:       hub,
		Media:     media.NewDisk(cfg.UploadDir, cfg.PublicBaseURL),
		Checkout:  checkout.NewService(s, hub),
		Confirmer: payment.NewConfirmer(s, hub),
	}
}

// NewRouter builds the gin engine with CORS, static uploads and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.MaxMultipartMemory = 32 << 20

	origins := d.Config.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", "x-paystack-signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(origins),
		MaxAge:           12 * time.Hour,
	}))

	if d.Config.UploadDir != "" {
		r.Static("/uploads", d.Config.UploadDir)
	}

	SetupRoutes(r, d)
	return r
}

// SetupRoutes is the single entry-point that wires up every route group.
func SetupRoutes(r *gin.Engine, d Deps) {
	// 1️⃣ Public auth routes
	SetupAuthRoutes(r, d)

	// 2️⃣ Public catalog
	SetupProductRoutes(r, d)

	// 3️⃣ User routes (JWT-protected)
	SetupUserRoutes(r, d)

	// 4️⃣ Checkout and payment
	SetupOrderRoutes(r, d)
	SetupPaymentRoutes(r, d)

	// 5️⃣ Admin routes (API key or admin JWT)
	SetupAdminRoutes(r, d)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
