package productcontroller

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Slug        string              `json:"slug" binding:"required"`
	Name        string              `json:"name" binding:"required"`
	Brand       string              `json:"brand"`
	Price       decimal.Decimal     `json:"price"`
	Stock       int                 `json:"stock" binding:"min=0"`
	Images      []string            `json:"image_url"`
	Description string              `json:"description"`
	Specs       models.ProductSpecs `json:"specs"`
}

// POST /admin/products
func CreateProduct(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if !input.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be greater than zero"})
			return
		}

		product := models.Product{
			Slug:        strings.TrimSpace(input.Slug),
			Name:        input.Name,
			Brand:       input.Brand,
			Price:       input.Price,
			Stock:       input.Stock,
			Images:      input.Images,
			Description: input.Description,
			Specs:       input.Specs,
		}
		if err := s.CreateProduct(c.Request.Context(), &product); err != nil {
			log.Printf("❌ creating product %s: %v", product.Slug, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}

		log.Printf("✅ product %d (%s) created", product.ID, product.Slug)
		c.JSON(http.StatusCreated, product)
	}
}
