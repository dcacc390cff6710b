package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/junaidrashid-git/storefront/models"
)

const RoleGuest models.Role = "guest"

// Claims are carried by every token the API issues.
type Claims struct {
	UserID  string      `json:"user_id"`
	Email   string      `json:"email,omitempty"`
	Role    models.Role `json:"role"`
	Name    string      `json:"name,omitempty"`
	Picture string      `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) IsGuest() bool { return c.Role == RoleGuest }

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) IssueUser(u models.User) (string, error) {
	return i.sign(Claims{UserID: u.ID, Email: u.Email, Role: u.Role, Name: u.Name, Picture: u.Picture})
}

func (i *Issuer) IssueGuest(guestID string) (string, error) {
	return i.sign(Claims{UserID: guestID, Role: RoleGuest})
}

func (i *Issuer) sign(c Claims) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("JWT_SECRET is not set")
	}
	now := i.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
}

// Parse validates signature, method and expiry.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
