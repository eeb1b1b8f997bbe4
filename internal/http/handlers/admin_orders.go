package handlers

import (
	"net/http"
	"strings"
	"time"

	"swad-order-service/internal/queue"
	"swad-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// allowedTransitions is the order lifecycle. CANCELLED is reachable from any
// state before the food leaves the kitchen.
var allowedTransitions = map[string][]string{
	"PLACED":           {"CONFIRMED", "CANCELLED"},
	"CONFIRMED":        {"PREPARING", "CANCELLED"},
	"PREPARING":        {"OUT_FOR_DELIVERY", "CANCELLED"},
	"OUT_FOR_DELIVERY": {"DELIVERED"},
	"DELIVERED":        {},
	"CANCELLED":        {},
}

func isTransitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type adminOrderSummary struct {
	ID            int64     `json:"id"`
	OrderNumber   string    `json:"orderNumber"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	ShiftName     string    `json:"shiftName,omitempty"`
	TotalAmount   float64   `json:"totalAmount"`
	ItemCount     int       `json:"itemCount"`
	PlacedAt      time.Time `json:"placedAt"`
}

// AdminOrderListActive returns orders still in the kitchen, oldest first.
func (h *Handler) AdminOrderListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select o.id, o.order_number, o.status, o.payment_method,
		       o.customer_name, o.customer_phone, o.shift_name, o.total_amount,
		       coalesce((select sum(quantity) from order_lines where order_id = o.id), 0),
		       o.placed_at
		from orders o
		where o.status in ('PLACED', 'CONFIRMED', 'PREPARING', 'OUT_FOR_DELIVERY')
		order by o.placed_at asc
	`)
	if err != nil {
		h.Logger.Error("list active orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list orders")
		return
	}
	defer rows.Close()

	orders := make([]adminOrderSummary, 0)
	for rows.Next() {
		var o adminOrderSummary
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PaymentMethod,
			&o.CustomerName, &o.CustomerPhone, &o.ShiftName, &o.TotalAmount,
			&o.ItemCount, &o.PlacedAt); err != nil {
			h.Logger.Error("scan active order", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list orders")
			return
		}
		orders = append(orders, o)
	}

	response.Success(w, map[string]any{"orders": orders})
}

type orderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

// AdminOrderUpdateStatus advances an order through the lifecycle, records the
// event, and fans the change out to websocket listeners and the queue.
func (h *Handler) AdminOrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	newStatus := strings.ToUpper(strings.TrimSpace(req.Status))
	if _, known := allowedTransitions[newStatus]; !known {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("begin status tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	defer tx.Rollback(ctx)

	var (
		orderNumber   string
		currentStatus string
		paymentMethod string
		phone         string
	)
	err = tx.QueryRow(ctx, `
		select order_number, status, payment_method, customer_phone
		from orders
		where id = $1
		for update
	`, orderID).Scan(&orderNumber, &currentStatus, &paymentMethod, &phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("load order for status", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	if !isTransitionAllowed(currentStatus, newStatus) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION",
			"Order cannot move from "+currentStatus+" to "+newStatus)
		return
	}

	if _, err := tx.Exec(ctx,
		`update orders set status = $2, updated_at = now() where id = $1`,
		orderID, newStatus,
	); err != nil {
		h.Logger.Error("update order status", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	note := strings.TrimSpace(req.Note)
	if oc, ok := getOperator(r); ok && note == "" {
		note = "Updated by " + oc.Email
	}
	if _, err := tx.Exec(ctx,
		`insert into order_events (order_id, action, note) values ($1, $2, $3)`,
		orderID, newStatus, note,
	); err != nil {
		h.Logger.Error("insert status event", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("commit status tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	h.notifyOrderUpdate(ctx, orderID, orderNumber, newStatus, phone)

	if err := queue.PublishOrderEvent(ctx, h.Queue, queue.OrderEvent{
		Type:          queue.EventOrderStatusUpdated,
		OrderID:       orderID,
		OrderNumber:   orderNumber,
		Status:        newStatus,
		PaymentMethod: paymentMethod,
		Phone:         phone,
	}); err != nil {
		h.Logger.Warn("publish status event", zap.Error(err))
	}

	response.Success(w, map[string]any{
		"id":          orderID,
		"orderNumber": orderNumber,
		"status":      newStatus,
	})
}
