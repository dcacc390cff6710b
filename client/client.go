// Package client talks to the storefront API from a shopper's machine. It
// is the remote mirror and stock reader behind a cart.Engine, and it
// submits orders and payment checks for the cart CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/junaidrashid-git/storefront/cart"
	"github.com/junaidrashid-git/storefront/checkout"
	"github.com/junaidrashid-git/storefront/models"
	"github.com/junaidrashid-git/storefront/payment"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("client: not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("storefront %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
}

func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		Session: session,
	}
}

// Load implements cart.RemoteMirror. The server answers for the token's
// user, so userID must match the session.
func (c *Client) Load(ctx context.Context, userID string) ([]cart.Line, error) {
	if err := c.checkUser(userID); err != nil {
		return nil, err
	}
	var out struct {
		Items []models.CartLineView `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/cart", nil, &out); err != nil {
		return nil, err
	}
	lines := make([]cart.Line, 0, len(out.Items))
	for _, v := range out.Items {
		lines = append(lines, cart.Line{
			ProductID: v.ProductID,
			Name:      v.Name,
			Brand:     v.Brand,
			UnitPrice: v.Price,
			Quantity:  v.Quantity,
			Image:     v.Image,
			MaxStock:  v.Stock,
		})
	}
	return lines, nil
}

func (c *Client) Upsert(ctx context.Context, userID string, productID uint, quantity int) error {
	if err := c.checkUser(userID); err != nil {
		return err
	}
	body := map[string]interface{}{"product_id": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/user/cart", body, nil)
}

func (c *Client) Delete(ctx context.Context, userID string, productID uint) error {
	if err := c.checkUser(userID); err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, "/user/cart/"+strconv.FormatUint(uint64(productID), 10), nil, nil)
}

// Product implements cart.StockReader against the public catalog.
func (c *Client) Product(ctx context.Context, id uint) (cart.Product, error) {
	p, err := c.CatalogProduct(ctx, strconv.FormatUint(uint64(id), 10))
	if errors.Is(err, ErrNotFound) {
		return cart.Product{}, fmt.Errorf("%w: %w", cart.ErrProductGone, err)
	}
	if err != nil {
		return cart.Product{}, err
	}
	return ToCartProduct(p), nil
}

// CatalogProduct fetches by numeric id or, failing that, by slug.
func (c *Client) CatalogProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	var p models.Product
	path := "/products/slug/" + idOrSlug
	if _, err := strconv.ParseUint(idOrSlug, 10, 64); err == nil {
		path = "/products/" + idOrSlug
	}
	err := c.do(ctx, http.MethodGet, path, nil, &p)
	return p, err
}

func ToCartProduct(p models.Product) cart.Product {
	return cart.Product{
		ID:    p.ID,
		Name:  p.Name,
		Brand: p.Brand,
		Price: p.Price,
		Stock: p.Stock,
		Image: p.PrimaryImage(),
	}
}

// Receipt is the server's answer to an order submission.
type Receipt struct {
	OrderID   uint            `json:"order_id"`
	Reference string          `json:"reference"`
	Total     decimal.Decimal `json:"total"`
}

func (c *Client) SubmitOrder(ctx context.Context, sub checkout.Submission) (Receipt, error) {
	var r Receipt
	err := c.do(ctx, http.MethodPost, "/orders", sub, &r)
	return r, err
}

func (c *Client) InitializePayment(ctx context.Context, orderID uint) (payment.Initialization, error) {
	var init payment.Initialization
	err := c.do(ctx, http.MethodPost, "/payment/initialize", map[string]uint{"order_id": orderID}, &init)
	return init, err
}

type Verification struct {
	Status    models.OrderStatus `json:"status"`
	OrderID   uint               `json:"order_id"`
	Finalized bool               `json:"finalized"`
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (Verification, error) {
	var v Verification
	err := c.do(ctx, http.MethodPost, "/payment/verify", map[string]string{"reference": reference}, &v)
	return v, err
}

// GuestToken asks the server for a guest token. It does not change the
// session.
func (c *Client) GuestToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/guest", nil, &out)
	return out.Token, err
}

// SignInWithGoogle exchanges a Google ID token for a storefront session.
func (c *Client) SignInWithGoogle(ctx context.Context, idToken string) (models.User, error) {
	var out struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/google-user", map[string]string{"idToken": idToken}, &out); err != nil {
		return models.User{}, err
	}
	if err := c.Session.SignIn(out.User.ID, out.Token); err != nil {
		return out.User, err
	}
	return out.User, nil
}

func (c *Client) checkUser(userID string) error {
	if got := c.Session.Current().UserID(); got != userID {
		return fmt.Errorf("client: session is for %q, not %q", got, userID)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error, Body: raw}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding %s %s: %w", method, path, err)
		}
	}
	return nil
}
