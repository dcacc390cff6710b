package payment

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

	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

const StatusSuccess = "success"

type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Currency    string
	Reference   string
	CallbackURL string
	OrderID     uint
}

type Initialization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the gateway's view of a charge.
type Transaction struct {
	ID        int64    `json:"id"`
	Status    string   `json:"status"`
	Reference string   `json:"reference"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Metadata  Metadata `json:"metadata"`
}

func (t Transaction) Succeeded() bool { return t.Status == StatusSuccess }

// TransactionRef is the gateway's own id, stored on the order.
func (t Transaction) TransactionRef() string {
	if t.ID == 0 {
		return ""
	}
	return strconv.FormatInt(t.ID, 10)
}

// Metadata carries the order id through the gateway. Paystack echoes it
// back as a number or a string depending on how it was sent, and sends ""
// when there is no metadata at all.
type Metadata struct {
	OrderID uint `json:"order_id"`
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		// "" or a bare value: no metadata
		return nil
	}
	v, ok := raw["order_id"]
	if !ok {
		return nil
	}
	s := strings.Trim(string(v), `"`)
	if s == "" || s == "null" {
		return nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("metadata.order_id: %w", err)
	}
	m.OrderID = uint(id)
	return nil
}

type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (Initialization, error)
	Verify(ctx context.Context, reference string) (Transaction, error)
}

// MinorUnits converts 1500.50 to 150050.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Paystack talks to the Paystack REST API.
type Paystack struct {
	SecretKey string
	BaseURL   string
	HTTP      *http.Client
}

func NewPaystack(secretKey, baseURL string) *Paystack {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Paystack{
		SecretKey: secretKey,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (Initialization, error) {
	payload := map[string]interface{}{
		"email":     req.Email,
		"amount":    strconv.FormatInt(MinorUnits(req.Amount), 10),
		"reference": req.Reference,
		"metadata":  map[string]interface{}{"order_id": req.OrderID},
	}
	if req.Currency != "" {
		payload["currency"] = req.Currency
	}
	if req.CallbackURL != "" {
		payload["callback_url"] = req.CallbackURL
	}

	var init Initialization
	if err := p.do(ctx, http.MethodPost, "/transaction/initialize", payload, &init); err != nil {
		return Initialization{}, err
	}
	if init.AuthorizationURL == "" {
		return Initialization{}, fmt.Errorf("paystack returned empty authorization url")
	}
	return init, nil
}

func (p *Paystack) Verify(ctx context.Context, reference string) (Transaction, error) {
	var tx Transaction
	err := p.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &tx)
	return tx, err
}

func (p *Paystack) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrTransactionNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: paystack %d: %s", ErrGatewayUnavailable, resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse paystack response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Status {
		return fmt.Errorf("paystack error (%d): %s", resp.StatusCode, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse paystack data: %w", err)
		}
	}
	return nil
}

// WebhookEvent is the body Paystack posts to the webhook.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

const EventChargeSuccess = "charge.success"
