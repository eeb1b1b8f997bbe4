package handlers

import (
	"net/http"
	"strings"
	"time"

	"swad-order-service/internal/utils"
	"swad-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type publicOrderLineView struct {
	Category  string  `json:"category"`
	ItemID    int64   `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type publicOrderEventView struct {
	Action    string    `json:"action"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type publicOrderView struct {
	OrderNumber   string                 `json:"orderNumber"`
	Status        string                 `json:"status"`
	PaymentMethod string                 `json:"paymentMethod"`
	TrackingCode  string                 `json:"trackingCode,omitempty"`
	CustomerName  string                 `json:"customerName"`
	ShiftName     string                 `json:"shiftName,omitempty"`
	TotalAmount   float64                `json:"totalAmount"`
	PlacedAt      time.Time              `json:"placedAt"`
	Lines         []publicOrderLineView  `json:"lines"`
	Events        []publicOrderEventView `json:"events"`
	TrackingToken string                 `json:"trackingToken,omitempty"`
}

// PublicOrderDetail returns one order. The caller proves ownership with
// either the customer phone or a tracking token minted on a previous lookup.
func (h *Handler) PublicOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderNumber := strings.TrimSpace(readPathString(r, "orderNumber"))
	if orderNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order number is required")
		return
	}

	var (
		orderID      int64
		view         publicOrderView
		trackingCode *string
		phone        string
		totalAmount  pgtype.Numeric
	)
	err := h.DB.QueryRow(ctx, `
		select id, order_number, status, payment_method, tracking_code,
		       customer_name, customer_phone, shift_name, total_amount, placed_at
		from orders
		where order_number = $1
	`, orderNumber).Scan(
		&orderID, &view.OrderNumber, &view.Status, &view.PaymentMethod, &trackingCode,
		&view.CustomerName, &phone, &view.ShiftName, &totalAmount, &view.PlacedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("load order", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load order")
		return
	}

	if !h.authorizeOrderAccess(r, phone, orderNumber) {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if trackingCode != nil {
		view.TrackingCode = *trackingCode
	}
	view.TotalAmount = utils.NumericToFloat64(totalAmount)
	view.TrackingToken = utils.CreateOrderTrackingToken(h.Config.OrderTrackingTokenSecret, phone, orderNumber)

	view.Lines = make([]publicOrderLineView, 0)
	lineRows, err := h.DB.Query(ctx, `
		select category, item_id, name, unit_price, quantity
		from order_lines
		where order_id = $1
		order by id asc
	`, orderID)
	if err != nil {
		h.Logger.Error("load order lines", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load order")
		return
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line publicOrderLineView
		if err := lineRows.Scan(&line.Category, &line.ItemID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			h.Logger.Error("scan order line", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load order")
			return
		}
		line.Subtotal = line.UnitPrice * float64(line.Quantity)
		view.Lines = append(view.Lines, line)
	}

	view.Events = make([]publicOrderEventView, 0)
	eventRows, err := h.DB.Query(ctx, `
		select action, note, created_at
		from order_events
		where order_id = $1
		order by created_at asc, id asc
	`, orderID)
	if err == nil {
		defer eventRows.Close()
		for eventRows.Next() {
			var evt publicOrderEventView
			if err := eventRows.Scan(&evt.Action, &evt.Note, &evt.CreatedAt); err == nil {
				view.Events = append(view.Events, evt)
			}
		}
	}

	response.Success(w, view)
}

func (h *Handler) authorizeOrderAccess(r *http.Request, phone, orderNumber string) bool {
	if queryPhone, ok := normalizePhone(r.URL.Query().Get("phone")); ok && queryPhone == phone {
		return true
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	return token != "" && utils.VerifyOrderTrackingToken(h.Config.OrderTrackingTokenSecret, token, phone, orderNumber)
}

type publicOrderSummary struct {
	OrderNumber string    `json:"orderNumber"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	PlacedAt    time.Time `json:"placedAt"`
}

// PublicOrderSearch lists recent orders for a phone number.
func (h *Handler) PublicOrderSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	phone, ok := normalizePhone(r.URL.Query().Get("phone"))
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "A valid mobile number is required")
		return
	}

	rows, err := h.DB.Query(ctx, `
		select order_number, status, total_amount, placed_at
		from orders
		where customer_phone = $1
		order by placed_at desc
		limit 20
	`, phone)
	if err != nil {
		h.Logger.Error("search orders", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to search orders")
		return
	}
	defer rows.Close()

	orders := make([]publicOrderSummary, 0)
	for rows.Next() {
		var summary publicOrderSummary
		if err := rows.Scan(&summary.OrderNumber, &summary.Status, &summary.TotalAmount, &summary.PlacedAt); err != nil {
			h.Logger.Error("scan order summary", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to search orders")
			return
		}
		orders = append(orders, summary)
	}

	response.Success(w, map[string]any{"orders": orders})
}
