package handlers

import (
	"context"
	"net/http"
	"time"

	"swad-order-service/internal/availability"
	"swad-order-service/internal/utils"
	"swad-order-service/pkg/response"

	"go.uber.org/zap"
)

// loadAvailabilityInputs reads the master switch, today's surrounding
// exceptions and the full shift set in one round trip each. Exceptions are
// fetched for a window around now so the evaluator can also compute the next
// opening without another query.
func (h *Handler) loadAvailabilityInputs(ctx context.Context, now time.Time) (availability.MasterSwitch, []availability.CalendarException, []availability.Shift, error) {
	var master availability.MasterSwitch
	err := h.DB.QueryRow(ctx,
		`select is_enabled, note from store_status where id = 1`,
	).Scan(&master.Enabled, &master.Note)
	if err != nil {
		return master, nil, nil, err
	}

	exceptions := make([]availability.CalendarException, 0)
	excRows, err := h.DB.Query(ctx, `
		select date, is_closed, note
		from store_exceptions
		where date between $1::date - interval '1 day' and $1::date + interval '15 days'
		order by date asc
	`, now.Format("2006-01-02"))
	if err != nil {
		return master, nil, nil, err
	}
	defer excRows.Close()
	for excRows.Next() {
		var exc availability.CalendarException
		if err := excRows.Scan(&exc.Date, &exc.IsClosed, &exc.Note); err != nil {
			return master, nil, nil, err
		}
		// date columns come back in UTC; re-anchor to the store zone so
		// same-calendar-date comparison holds.
		exc.Date = time.Date(exc.Date.Year(), exc.Date.Month(), exc.Date.Day(), 0, 0, 0, 0, now.Location())
		exceptions = append(exceptions, exc)
	}

	shifts := make([]availability.Shift, 0)
	shiftRows, err := h.DB.Query(ctx, `
		select id, name, start_time, end_time, cutoff_minutes, is_active
		from store_shifts
		order by id asc
	`)
	if err != nil {
		return master, nil, nil, err
	}
	defer shiftRows.Close()
	for shiftRows.Next() {
		var s availability.Shift
		if err := shiftRows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.CutoffMinutes, &s.IsActive); err != nil {
			return master, nil, nil, err
		}
		shifts = append(shifts, s)
	}

	return master, exceptions, shifts, nil
}

func (h *Handler) storeNow() time.Time {
	return utils.NowInTimezone(h.Config.StoreTimezone)
}

// PublicStoreStatus answers "is the store open and taking orders right now".
func (h *Handler) PublicStoreStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	now := h.storeNow()
	master, exceptions, shifts, err := h.loadAvailabilityInputs(ctx, now)
	if err != nil {
		h.Logger.Error("load availability inputs", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load store status")
		return
	}

	verdict := availability.Evaluate(now, master, exceptions, shifts)

	active := make([]publicShift, 0, len(shifts))
	for _, s := range shifts {
		if !s.IsActive {
			continue
		}
		active = append(active, publicShift{
			Name:      s.Name,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}

	response.Success(w, publicStoreStatusResponse{
		Verdict:    verdict,
		ServerTime: now.Format(time.RFC3339),
		Shifts:     active,
	})
}

type publicShift struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Verdict is embedded so the storefront keeps reading isOpen and reasonCode
// at the top level.
type publicStoreStatusResponse struct {
	availability.Verdict
	ServerTime string        `json:"serverTime"`
	Shifts     []publicShift `json:"shifts"`
}
