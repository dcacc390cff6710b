package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/auth"
)

// ValidateAPIKey checks X-API-KEY. An empty configured key rejects all.
func ValidateAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !apiKeyMatches(c, key) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminAccess accepts either the automation API key or an admin token.
func AdminAccess(key string, issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKeyMatches(c, key) {
			c.Next()
			return
		}
		claims, err := issuer.Parse(bearer(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing credentials"})
			c.Abort()
			return
		}
		if !claims.Role.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func apiKeyMatches(c *gin.Context, key string) bool {
	got := c.GetHeader("X-API-KEY")
	return key != "" && got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1
}
