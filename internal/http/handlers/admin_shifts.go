package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"swad-order-service/internal/availability"
	"swad-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type shiftRequest struct {
	Name          string `json:"name"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	CutoffMinutes int    `json:"cutoffMinutes"`
	IsActive      *bool  `json:"isActive"`
}

// AdminShiftList returns every shift, active or not, ordered by start time.
func (h *Handler) AdminShiftList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select id, name, start_time, end_time, cutoff_minutes, is_active
		from store_shifts
		order by start_time asc, id asc
	`)
	if err != nil {
		h.Logger.Error("list shifts", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list shifts")
		return
	}
	defer rows.Close()

	shifts := make([]availability.Shift, 0)
	for rows.Next() {
		var s availability.Shift
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.CutoffMinutes, &s.IsActive); err != nil {
			h.Logger.Error("scan shift", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list shifts")
			return
		}
		shifts = append(shifts, s)
	}

	response.Success(w, map[string]any{"shifts": shifts})
}

// AdminShiftCreate adds a shift; the overlap check runs against the active
// set inside the same transaction that inserts the row.
func (h *Handler) AdminShiftCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req shiftRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	candidate := availability.Shift{
		Name:          strings.TrimSpace(req.Name),
		StartTime:     strings.TrimSpace(req.StartTime),
		EndTime:       strings.TrimSpace(req.EndTime),
		CutoffMinutes: req.CutoffMinutes,
		IsActive:      isActive,
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("begin shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create shift")
		return
	}
	defer tx.Rollback(ctx)

	if candidate.IsActive {
		if !h.validateShiftInTx(ctx, tx, w, candidate) {
			return
		}
	} else if err := availability.ValidateShift(candidate, nil); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	err = tx.QueryRow(ctx, `
		insert into store_shifts (name, start_time, end_time, cutoff_minutes, is_active)
		values ($1, $2, $3, $4, $5)
		returning id
	`, candidate.Name, candidate.StartTime, candidate.EndTime, candidate.CutoffMinutes, candidate.IsActive).Scan(&candidate.ID)
	if err != nil {
		h.Logger.Error("insert shift", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create shift")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("commit shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create shift")
		return
	}

	response.Created(w, candidate)
}

// AdminShiftUpdate edits a shift in place. The shift being edited is skipped
// by the overlap check so unchanged times do not conflict with themselves.
func (h *Handler) AdminShiftUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shiftID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid shift id")
		return
	}

	var req shiftRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("begin shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shift")
		return
	}
	defer tx.Rollback(ctx)

	var current availability.Shift
	err = tx.QueryRow(ctx, `
		select id, name, start_time, end_time, cutoff_minutes, is_active
		from store_shifts
		where id = $1
		for update
	`, shiftID).Scan(&current.ID, &current.Name, &current.StartTime, &current.EndTime, &current.CutoffMinutes, &current.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "SHIFT_NOT_FOUND", "Shift not found")
			return
		}
		h.Logger.Error("load shift", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shift")
		return
	}

	candidate := availability.Shift{
		ID:            current.ID,
		Name:          strings.TrimSpace(req.Name),
		StartTime:     strings.TrimSpace(req.StartTime),
		EndTime:       strings.TrimSpace(req.EndTime),
		CutoffMinutes: req.CutoffMinutes,
		IsActive:      current.IsActive,
	}
	if req.IsActive != nil {
		candidate.IsActive = *req.IsActive
	}

	if candidate.IsActive {
		if !h.validateShiftInTx(ctx, tx, w, candidate) {
			return
		}
	} else if err := availability.ValidateShift(candidate, nil); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	_, err = tx.Exec(ctx, `
		update store_shifts
		set name = $2, start_time = $3, end_time = $4, cutoff_minutes = $5, is_active = $6, updated_at = now()
		where id = $1
	`, candidate.ID, candidate.Name, candidate.StartTime, candidate.EndTime, candidate.CutoffMinutes, candidate.IsActive)
	if err != nil {
		h.Logger.Error("update shift", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shift")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("commit shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shift")
		return
	}

	response.Success(w, candidate)
}

// AdminShiftToggle flips is_active. Re-activating runs the overlap check, so
// a shift paused before an overlapping one was added cannot silently return.
func (h *Handler) AdminShiftToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shiftID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid shift id")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("begin shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle shift")
		return
	}
	defer tx.Rollback(ctx)

	var current availability.Shift
	err = tx.QueryRow(ctx, `
		select id, name, start_time, end_time, cutoff_minutes, is_active
		from store_shifts
		where id = $1
		for update
	`, shiftID).Scan(&current.ID, &current.Name, &current.StartTime, &current.EndTime, &current.CutoffMinutes, &current.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "SHIFT_NOT_FOUND", "Shift not found")
			return
		}
		h.Logger.Error("load shift", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle shift")
		return
	}

	current.IsActive = !current.IsActive
	if current.IsActive {
		if !h.validateShiftInTx(ctx, tx, w, current) {
			return
		}
	}

	if _, err := tx.Exec(ctx,
		`update store_shifts set is_active = $2, updated_at = now() where id = $1`,
		current.ID, current.IsActive,
	); err != nil {
		h.Logger.Error("toggle shift", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle shift")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("commit shift tx", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle shift")
		return
	}

	response.Success(w, current)
}

// validateShiftInTx loads the full shift set with a share lock and runs the
// overlap check. Writes the error response itself and reports whether the
// caller may proceed.
func (h *Handler) validateShiftInTx(ctx context.Context, tx pgx.Tx, w http.ResponseWriter, candidate availability.Shift) bool {
	rows, err := tx.Query(ctx, `
		select id, name, start_time, end_time, cutoff_minutes, is_active
		from store_shifts
		for share
	`)
	if err != nil {
		h.Logger.Error("load shifts for validation", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate shift")
		return false
	}
	defer rows.Close()

	existing := make([]availability.Shift, 0)
	for rows.Next() {
		var s availability.Shift
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.CutoffMinutes, &s.IsActive); err != nil {
			h.Logger.Error("scan shift for validation", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate shift")
			return false
		}
		existing = append(existing, s)
	}
	rows.Close()

	if err := availability.ValidateShift(candidate, existing); err != nil {
		var conflict *availability.ConflictError
		if errors.As(err, &conflict) {
			response.Error(w, http.StatusConflict, "SHIFT_OVERLAP", err.Error())
		} else {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		}
		return false
	}
	return true
}
