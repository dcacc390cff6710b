package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/store"
)

type Handlers struct {
	Store           *store.Store
	Verifier        TokenVerifier
	Issuer          *Issuer
	SuperAdminEmail string
}

type loginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

// GoogleUserLogin is POST /auth/google-user. The shopper's cart is not
// touched here: guest carts live on the client and are merged there.
func (h *Handlers) GoogleUserLogin(c *gin.Context) {
	user, ok := h.login(c)
	if !ok {
		return
	}
	h.respond(c, user)
}

// GoogleAdminLogin is POST /auth/google-admin: same flow, admins only.
func (h *Handlers) GoogleAdminLogin(c *gin.Context) {
	user, ok := h.login(c)
	if !ok {
		return
	}
	if !user.Role.IsAdmin() {
		log.Printf("⚠️ non-admin %s tried the admin login", user.Email)
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}
	h.respond(c, user)
}

func (h *Handlers) login(c *gin.Context) (models.User, bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return models.User{}, false
	}
	if h.Verifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sign-in is not configured"})
		return models.User{}, false
	}

	id, err := h.Verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		log.Printf("❌ ID token verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or revoked ID token"})
		return models.User{}, false
	}

	user := models.User{
		ID:       id.UID,
		Email:    id.Email,
		Name:     id.Name,
		Picture:  id.Picture,
		Provider: "google",
	}
	if h.SuperAdminEmail != "" && strings.EqualFold(id.Email, h.SuperAdminEmail) {
		user.Role = models.RoleSuperAdmin
	}
	if err := h.Store.UpsertUser(c.Request.Context(), &user); err != nil {
		log.Printf("❌ saving user %s: %v", id.UID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return models.User{}, false
	}
	return user, true
}

func (h *Handlers) respond(c *gin.Context, user models.User) {
	token, err := h.Issuer.IssueUser(user)
	if err != nil {
		log.Printf("❌ token generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// Guest is POST /auth/guest. Guests get a token for optional-auth routes;
// their cart never leaves the client.
func (h *Handlers) Guest(c *gin.Context) {
	guestID, err := randomID(16)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
		return
	}
	guest := models.GuestUser{
		ID:        "guest_" + guestID,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := h.Store.CreateGuest(c.Request.Context(), &guest); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
		return
	}

	token, err := h.Issuer.IssueGuest(guest.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"guest_id":   guest.ID,
		"token":      token,
		"expires_at": guest.ExpiresAt,
	})
}

func randomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.New("reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(b), nil
}
