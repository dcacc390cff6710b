package productcontroller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UpdateProductInput changes only the fields that are present.
type UpdateProductInput struct {
	Slug        *string              `json:"slug"`
	Name        *string              `json:"name"`
	Brand       *string              `json:"brand"`
	Price       *decimal.Decimal     `json:"price"`
	Stock       *int                 `json:"stock"`
	Images      []string             `json:"image_url"`
	Description *string              `json:"description"`
	Specs       *models.ProductSpecs `json:"specs"`
}

// PUT /admin/products/:id
func UpdateProduct(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var input UpdateProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		product, err := s.GetProduct(ctx, uint(id))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		if input.Price != nil && !input.Price.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price must be greater than zero"})
			return
		}
		if input.Stock != nil && *input.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
			return
		}

		if input.Slug != nil {
			product.Slug = *input.Slug
		}
		if input.Name != nil {
			product.Name = *input.Name
		}
		if input.Brand != nil {
			product.Brand = *input.Brand
		}
		if input.Price != nil {
			product.Price = *input.Price
		}
		if input.Stock != nil {
			product.Stock = *input.Stock
		}
		if input.Images != nil {
			product.Images = input.Images
		}
		if input.Description != nil {
			product.Description = *input.Description
		}
		if input.Specs != nil {
			product.Specs = *input.Specs
		}

		if err := s.SaveProduct(ctx, &product); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
