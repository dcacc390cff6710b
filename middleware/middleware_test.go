package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront/auth"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(r http.Handler, method, path string, headers map[string]string, body string) int {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestTokenMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := auth.NewIssuer("s3cret", time.Hour)
	user, err := issuer.IssueUser(models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	guest, err := issuer.IssueGuest("guest_1")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", ValidateToken(issuer), RequireUser(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/maybe", OptionalToken(issuer), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	r.GET("/admin", ValidateToken(issuer), RequireRole(models.RoleAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", nil, ""))
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/me", map[string]string{"Authorization": "Bearer " + user}, ""))
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/me", map[string]string{"Authorization": user}, ""))
	assert.Equal(t, http.StatusForbidden, serve(r, "GET", "/me", map[string]string{"Authorization": "Bearer " + guest}, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/me", map[string]string{"Authorization": "Bearer junk"}, ""))

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/maybe", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/maybe", map[string]string{"Authorization": "Bearer junk"}, ""))

	assert.Equal(t, http.StatusForbidden, serve(r, "GET", "/admin", map[string]string{"Authorization": "Bearer " + user}, ""))
}

func TestAdminAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := auth.NewIssuer("s3cret", time.Hour)
	admin, err := issuer.IssueUser(models.User{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)
	user, err := issuer.IssueUser(models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/admin", AdminAccess("key-123", issuer), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/automation", ValidateAPIKey("key-123"), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/unset", ValidateAPIKey(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/admin", map[string]string{"X-API-KEY": "key-123"}, ""))
	assert.Equal(t, http.StatusOK, serve(r, "GET", "/admin", map[string]string{"Authorization": "Bearer " + admin}, ""))
	assert.Equal(t, http.StatusForbidden, serve(r, "GET", "/admin", map[string]string{"Authorization": "Bearer " + user}, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/admin", map[string]string{"X-API-KEY": "wrong"}, ""))

	assert.Equal(t, http.StatusOK, serve(r, "GET", "/automation", map[string]string{"X-API-KEY": "key-123"}, ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, "GET", "/unset", map[string]string{"X-API-KEY": ""}, ""))
}

func TestPaystackSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.POST("/webhook", PaystackSignature("sk_test"), func(c *gin.Context) {
		b, _ := c.GetRawData()
		seen = string(b)
		c.Status(http.StatusOK)
	})

	body := `{"event":"charge.success"}`
	assert.Equal(t, http.StatusUnauthorized, serve(r, "POST", "/webhook", map[string]string{"x-paystack-signature": "00"}, body))
	assert.Empty(t, seen)

	sig := payment.Sign("sk_test", []byte(body))
	assert.Equal(t, http.StatusOK, serve(r, "POST", "/webhook", map[string]string{"x-paystack-signature": sig}, body))
	assert.Equal(t, body, seen)
}
