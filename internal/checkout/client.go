package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"swad-order-service/internal/availability"
	"swad-order-service/internal/cart"
)

// APIError is a structured error envelope returned by the storefront API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type OrderLinePayload struct {
	ItemID    int64   `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type CreateOrderRequest struct {
	ComboLines    []OrderLinePayload `json:"comboLines"`
	ItemLines     []OrderLinePayload `json:"itemLines"`
	SnackLines    []OrderLinePayload `json:"snackLines"`
	Customer      Customer           `json:"customer"`
	PaymentMethod string             `json:"paymentMethod"`
}

type OrderResult struct {
	OrderNumber  string  `json:"orderNumber"`
	Status       string  `json:"status"`
	TrackingCode string  `json:"trackingCode,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
}

// OrderGateway is the slice of the storefront API the checkout pipeline
// needs. Client is the production implementation.
type OrderGateway interface {
	FetchAvailability(ctx context.Context) (*availability.Verdict, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*OrderResult, error)
	SaveDraft(ctx context.Context, sessionKey string, lines []cart.Line, total float64) error
	DeleteDraft(ctx context.Context, sessionKey string) error
}

// Client talks to the public storefront endpoints over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) FetchAvailability(ctx context.Context) (*availability.Verdict, error) {
	verdict := &availability.Verdict{}
	if err := c.do(ctx, http.MethodGet, "/api/public/store/status", nil, nil, verdict); err != nil {
		return nil, err
	}
	return verdict, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest, idempotencyKey string) (*OrderResult, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	result := &OrderResult{}
	if err := c.do(ctx, http.MethodPost, "/api/public/orders", req, headers, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) SaveDraft(ctx context.Context, sessionKey string, lines []cart.Line, total float64) error {
	payload := map[string]any{
		"lines":       lines,
		"totalAmount": total,
	}
	return c.do(ctx, http.MethodPut, "/api/public/carts/"+sessionKey, payload, nil, nil)
}

func (c *Client) DeleteDraft(ctx context.Context, sessionKey string) error {
	return c.do(ctx, http.MethodDelete, "/api/public/carts/"+sessionKey, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if !envelope.Success {
		return &APIError{Status: resp.StatusCode, Code: envelope.Error, Message: envelope.Message}
	}
	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
