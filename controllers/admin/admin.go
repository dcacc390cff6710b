package adminController

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
	"gorm.io/gorm"
)

// GET /admin/admins
func GetAllAdmins(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		admins, err := s.ListAdmins(c.Request.Context())
		if err != nil {
			log.Println("❌ Failed to fetch admins:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch admins"})
			return
		}
		c.JSON(http.StatusOK, admins)
	}
}

type roleInput struct {
	Role models.Role `json:"role" binding:"required"`
}

// PATCH /admin/users/:id/role (super admin only). The super admin role
// itself comes from configuration and cannot be granted here.
func SetUserRole(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input roleInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
			return
		}
		if input.Role != models.RoleUser && input.Role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
			return
		}

		ctx := c.Request.Context()
		target, err := s.GetUser(ctx, c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
			return
		}
		if target.Role == models.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot change the super admin's role"})
			return
		}

		if err := s.SetUserRole(ctx, target.ID, input.Role); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}
		log.Printf("👤 %s is now %s", target.Email, input.Role)
		c.JSON(http.StatusOK, gin.H{"message": "Role updated", "id": target.ID, "role": input.Role})
	}
}
