package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/store"
)

// GET /products?brand=
func GetProducts(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		brand := strings.TrimSpace(c.Query("brand"))
		products, err := s.ListProducts(c.Request.Context(), brand)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
