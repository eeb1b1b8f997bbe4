package handlers

import (
	"net/http"
	"strings"
	"time"

	"swad-order-service/pkg/response"

	"go.uber.org/zap"
)

type masterSwitchRequest struct {
	IsEnabled *bool  `json:"isEnabled"`
	Note      string `json:"note"`
}

// AdminStoreStatusGet returns the master switch row.
func (h *Handler) AdminStoreStatusGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		isEnabled bool
		note      string
		updatedAt time.Time
	)
	err := h.DB.QueryRow(ctx,
		`select is_enabled, note, updated_at from store_status where id = 1`,
	).Scan(&isEnabled, &note, &updatedAt)
	if err != nil {
		h.Logger.Error("load store status", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load store status")
		return
	}

	response.Success(w, map[string]any{
		"isEnabled": isEnabled,
		"note":      note,
		"updatedAt": updatedAt,
	})
}

// AdminStoreStatusUpdate flips the master switch. This wins over shifts and
// exceptions, so it is the fastest way to stop taking orders.
func (h *Handler) AdminStoreStatusUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req masterSwitchRequest
	if err := decodeJSON(r, &req); err != nil || req.IsEnabled == nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "isEnabled is required")
		return
	}

	_, err := h.DB.Exec(ctx,
		`update store_status set is_enabled = $1, note = $2, updated_at = now() where id = 1`,
		*req.IsEnabled, strings.TrimSpace(req.Note),
	)
	if err != nil {
		h.Logger.Error("update store status", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update store status")
		return
	}

	if oc, ok := getOperator(r); ok {
		h.Logger.Info("master switch changed",
			zap.Bool("isEnabled", *req.IsEnabled),
			zap.String("operator", oc.Email),
		)
	}

	response.Success(w, map[string]any{
		"isEnabled": *req.IsEnabled,
		"note":      strings.TrimSpace(req.Note),
	})
}

type exceptionView struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	IsClosed bool   `json:"isClosed"`
	Note     string `json:"note"`
}

type exceptionRequest struct {
	Date     string `json:"date"`
	IsClosed *bool  `json:"isClosed"`
	Note     string `json:"note"`
}

// AdminExceptionList returns calendar exceptions from today onwards.
func (h *Handler) AdminExceptionList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select id, to_char(date, 'YYYY-MM-DD'), is_closed, note
		from store_exceptions
		where date >= current_date
		order by date asc
	`)
	if err != nil {
		h.Logger.Error("list exceptions", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list exceptions")
		return
	}
	defer rows.Close()

	exceptions := make([]exceptionView, 0)
	for rows.Next() {
		var exc exceptionView
		if err := rows.Scan(&exc.ID, &exc.Date, &exc.IsClosed, &exc.Note); err != nil {
			h.Logger.Error("scan exception", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list exceptions")
			return
		}
		exceptions = append(exceptions, exc)
	}

	response.Success(w, map[string]any{"exceptions": exceptions})
}

// AdminExceptionUpsert creates or replaces the exception for a date. One row
// per date; saving the same date twice just updates it.
func (h *Handler) AdminExceptionUpsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req exceptionRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date)); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Date must be YYYY-MM-DD")
		return
	}
	isClosed := true
	if req.IsClosed != nil {
		isClosed = *req.IsClosed
	}

	var exc exceptionView
	err := h.DB.QueryRow(ctx, `
		insert into store_exceptions (date, is_closed, note)
		values ($1, $2, $3)
		on conflict (date) do update set
			is_closed = excluded.is_closed,
			note = excluded.note,
			updated_at = now()
		returning id, to_char(date, 'YYYY-MM-DD'), is_closed, note
	`, strings.TrimSpace(req.Date), isClosed, strings.TrimSpace(req.Note)).Scan(&exc.ID, &exc.Date, &exc.IsClosed, &exc.Note)
	if err != nil {
		h.Logger.Error("upsert exception", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save exception")
		return
	}

	response.Success(w, exc)
}

func (h *Handler) AdminExceptionDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	exceptionID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid exception id")
		return
	}

	tag, err := h.DB.Exec(ctx, `delete from store_exceptions where id = $1`, exceptionID)
	if err != nil {
		h.Logger.Error("delete exception", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete exception")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "EXCEPTION_NOT_FOUND", "Exception not found")
		return
	}

	response.Success(w, map[string]any{"deleted": true})
}
