package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"swad-order-service/internal/cart"
)

func TestClientCreateOrder(t *testing.T) {
	var gotKey string
	var gotBody CreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/public/orders" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"orderNumber": "SOT-2026-000007",
				"status":      "PLACED",
				"totalAmount": 160.0,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		ItemLines:     []OrderLinePayload{{ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 4}},
		Customer:      Customer{Name: "Meena", Phone: "9876543210"},
		PaymentMethod: "COD",
	}, "key-123")
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if result.OrderNumber != "SOT-2026-000007" {
		t.Fatalf("OrderNumber = %q", result.OrderNumber)
	}
	if gotKey != "key-123" {
		t.Fatalf("Idempotency-Key = %q, want key-123", gotKey)
	}
	if len(gotBody.ItemLines) != 1 || gotBody.ItemLines[0].Quantity != 4 {
		t.Fatalf("request body lines = %+v", gotBody.ItemLines)
	}
}

func TestClientDecodesErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "STORE_CLOSED",
			"message": "Store is closed right now.",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateOrder(context.Background(), CreateOrderRequest{}, "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != "STORE_CLOSED" || apiErr.Status != http.StatusConflict {
		t.Fatalf("APIError = %+v", apiErr)
	}
}

func TestClientFetchAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/public/store/status" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"isOpen":           true,
				"canAcceptOrders":  true,
				"currentShiftName": "Breakfast",
				"message":          "Now serving: Breakfast.",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	verdict, err := client.FetchAvailability(context.Background())
	if err != nil {
		t.Fatalf("FetchAvailability() error = %v", err)
	}
	if !verdict.CanAcceptOrders || verdict.CurrentShiftName != "Breakfast" {
		t.Fatalf("verdict = %+v", verdict)
	}
}

func TestClientSaveDraft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/public/carts/session-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"saved": true}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	lines := []cart.Line{{Category: cart.CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 2}}
	if err := client.SaveDraft(context.Background(), "session-1", lines, 80); err != nil {
		t.Fatalf("SaveDraft() error = %v", err)
	}
}
