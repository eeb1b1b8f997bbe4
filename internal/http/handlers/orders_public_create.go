package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"swad-order-service/internal/availability"
	"swad-order-service/internal/queue"
	"swad-order-service/pkg/response"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type publicOrderLine struct {
	ItemID    int64   `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type publicOrderCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type publicOrderCreateRequest struct {
	ComboLines    []publicOrderLine   `json:"comboLines"`
	ItemLines     []publicOrderLine   `json:"itemLines"`
	SnackLines    []publicOrderLine   `json:"snackLines"`
	Customer      publicOrderCustomer `json:"customer"`
	PaymentMethod string              `json:"paymentMethod"`
}

type publicOrderCreateResponse struct {
	OrderNumber  string  `json:"orderNumber"`
	Status       string  `json:"status"`
	TrackingCode string  `json:"trackingCode,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
	ShiftName    string  `json:"shiftName,omitempty"`
}

// PublicOrderCreate places an order after re-checking the serving window on
// the server side. An Idempotency-Key header makes retries safe: a key that
// already produced an order returns that order instead of a duplicate.
func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req publicOrderCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	phone, ok := normalizePhone(req.Customer.Phone)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "A valid mobile number is required")
		return
	}

	paymentMethod := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		paymentMethod = "ONLINE"
	}
	if paymentMethod != "ONLINE" && paymentMethod != "COD" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Payment method must be ONLINE or COD")
		return
	}

	lines := collectOrderLines(req)
	if len(lines) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order must contain at least one line")
		return
	}
	if !orderLinesValid(lines) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order lines must have a name, a positive quantity and a non-negative price")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		if existing, err := h.findOrderByIdempotencyKey(ctx, idempotencyKey); err == nil && existing != nil {
			response.Success(w, existing)
			return
		}
	}

	now := h.storeNow()
	master, exceptions, shifts, err := h.loadAvailabilityInputs(ctx, now)
	if err != nil {
		h.Logger.Error("load availability inputs", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load store status")
		return
	}

	verdict := availability.Evaluate(now, master, exceptions, shifts)
	if !verdict.CanAcceptOrders {
		response.Error(w, http.StatusConflict, "STORE_CLOSED", verdict.Message)
		return
	}

	total := 0.0
	for _, line := range lines {
		total += line.payload.UnitPrice * float64(line.payload.Quantity)
	}

	trackingCode := ""
	if paymentMethod == "COD" {
		trackingCode = fmt.Sprintf("COD-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:6]))
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("begin order tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}
	defer tx.Rollback(ctx)

	var customerID int64
	err = tx.QueryRow(ctx, `
		insert into customers (phone, name, email, address)
		values ($1, $2, $3, $4)
		on conflict (phone) do update set
			name = coalesce(nullif(excluded.name, ''), customers.name),
			email = coalesce(nullif(excluded.email, ''), customers.email),
			address = coalesce(nullif(excluded.address, ''), customers.address)
		returning id
	`, phone, strings.TrimSpace(req.Customer.Name), strings.TrimSpace(req.Customer.Email), strings.TrimSpace(req.Customer.Address)).Scan(&customerID)
	if err != nil {
		h.Logger.Error("upsert customer", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	orderNumber, err := nextOrderNumber(ctx, tx, h.Config.OrderNumberPrefix, now.Year())
	if err != nil {
		h.Logger.Error("allocate order number", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		insert into orders (
			order_number, status, payment_method, tracking_code, idempotency_key,
			customer_id, customer_name, customer_phone, customer_email, customer_address,
			shift_name, total_amount, placed_at
		)
		values ($1, 'PLACED', $2, nullif($3, ''), nullif($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)
		returning id
	`, orderNumber, paymentMethod, trackingCode, idempotencyKey,
		customerID, strings.TrimSpace(req.Customer.Name), phone, strings.TrimSpace(req.Customer.Email), strings.TrimSpace(req.Customer.Address),
		verdict.CurrentShiftName, total, now).Scan(&orderID)
	if err != nil {
		// A unique violation on idempotency_key means a concurrent retry won.
		if idempotencyKey != "" {
			if existing, lookupErr := h.findOrderByIdempotencyKey(ctx, idempotencyKey); lookupErr == nil && existing != nil {
				response.Success(w, existing)
				return
			}
		}
		h.Logger.Error("insert order", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	for _, line := range lines {
		_, err = tx.Exec(ctx, `
			insert into order_lines (order_id, category, item_id, name, unit_price, quantity)
			values ($1, $2, $3, $4, $5, $6)
		`, orderID, line.category, line.payload.ItemID, strings.TrimSpace(line.payload.Name), line.payload.UnitPrice, line.payload.Quantity)
		if err != nil {
			h.Logger.Error("insert order line", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
			return
		}
	}

	if _, err = tx.Exec(ctx, `
		insert into order_events (order_id, action, note) values ($1, 'PLACED', $2)
	`, orderID, fmt.Sprintf("Order placed via %s", paymentMethod)); err != nil {
		h.Logger.Error("insert order event", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	if err = tx.Commit(ctx); err != nil {
		h.Logger.Error("commit order tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	h.notifyOrderUpdate(ctx, orderID, orderNumber, "PLACED", phone)

	if err := queue.PublishOrderEvent(ctx, h.Queue, queue.OrderEvent{
		Type:          queue.EventOrderCreated,
		OrderID:       orderID,
		OrderNumber:   orderNumber,
		Status:        "PLACED",
		PaymentMethod: paymentMethod,
		TrackingCode:  trackingCode,
		Phone:         phone,
	}); err != nil {
		h.Logger.Warn("publish order created event", zap.Error(err))
	}

	h.Logger.Info("order placed",
		zap.String("orderNumber", orderNumber),
		zap.String("paymentMethod", paymentMethod),
		zap.Float64("totalAmount", total),
	)

	response.Created(w, publicOrderCreateResponse{
		OrderNumber:  orderNumber,
		Status:       "PLACED",
		TrackingCode: trackingCode,
		TotalAmount:  total,
		ShiftName:    verdict.CurrentShiftName,
	})
}

type taggedOrderLine struct {
	category string
	payload  publicOrderLine
}

func collectOrderLines(req publicOrderCreateRequest) []taggedOrderLine {
	lines := make([]taggedOrderLine, 0, len(req.ComboLines)+len(req.ItemLines)+len(req.SnackLines))
	for _, l := range req.ComboLines {
		lines = append(lines, taggedOrderLine{category: "combo", payload: l})
	}
	for _, l := range req.ItemLines {
		lines = append(lines, taggedOrderLine{category: "item", payload: l})
	}
	for _, l := range req.SnackLines {
		lines = append(lines, taggedOrderLine{category: "snack", payload: l})
	}
	return lines
}

func orderLinesValid(lines []taggedOrderLine) bool {
	for _, line := range lines {
		if line.payload.Quantity <= 0 || line.payload.UnitPrice < 0 || strings.TrimSpace(line.payload.Name) == "" {
			return false
		}
	}
	return true
}

// nextOrderNumber allocates PREFIX-YYYY-NNNNNN with a per-year sequence. The
// advisory lock serialises concurrent placements; the unique constraint on
// order_number backstops it.
func nextOrderNumber(ctx context.Context, tx pgx.Tx, prefix string, year int) (string, error) {
	if _, err := tx.Exec(ctx, `select pg_advisory_xact_lock(hashtext('order_number'))`); err != nil {
		return "", err
	}
	pattern := fmt.Sprintf("%s-%d-%%", prefix, year)
	position := len(prefix) + 7 // first digit past "PREFIX-YYYY-"
	var seq int64
	err := tx.QueryRow(ctx, `
		select coalesce(max(substring(order_number from $2::int)::bigint), 0) + 1
		from orders
		where order_number like $1
	`, pattern, position).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq), nil
}

func (h *Handler) findOrderByIdempotencyKey(ctx context.Context, key string) (*publicOrderCreateResponse, error) {
	var (
		out          publicOrderCreateResponse
		trackingCode *string
	)
	err := h.DB.QueryRow(ctx, `
		select order_number, status, tracking_code, total_amount, shift_name
		from orders
		where idempotency_key = $1
	`, key).Scan(&out.OrderNumber, &out.Status, &trackingCode, &out.TotalAmount, &out.ShiftName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if trackingCode != nil {
		out.TrackingCode = *trackingCode
	}
	return &out, nil
}

// notifyOrderUpdate fans the change out to websocket listeners through
// Postgres LISTEN/NOTIFY.
func (h *Handler) notifyOrderUpdate(ctx context.Context, orderID int64, orderNumber, status, phone string) {
	payload, err := json.Marshal(map[string]any{
		"orderId":     orderID,
		"orderNumber": orderNumber,
		"status":      status,
		"phone":       phone,
		"updatedAt":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if _, err := h.DB.Exec(ctx, `select pg_notify('public_order_updates', $1)`, string(payload)); err != nil {
		h.Logger.Warn("pg_notify order update", zap.Error(err))
	}
}
