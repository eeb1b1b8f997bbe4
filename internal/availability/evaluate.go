package availability

import (
	"fmt"
	"time"
)

const (
	ReasonMasterOverride    = "MASTER_OVERRIDE"
	ReasonCalendarException = "CALENDAR_EXCEPTION"
	ReasonOutsideHours      = "OUTSIDE_HOURS"
	ReasonPastCutoff        = "PAST_CUTOFF"
)

// nextOpeningHorizonDays bounds the scan for the next shift start. Beyond
// this the store is effectively closed indefinitely and we return nothing.
const nextOpeningHorizonDays = 14

// Verdict is the answer to "can the store take an order right now".
// IsOpen tracks the serving window; CanAcceptOrders additionally honours the
// per-shift order cutoff, so the two can disagree near the end of a shift.
type Verdict struct {
	IsOpen           bool       `json:"isOpen"`
	CanAcceptOrders  bool       `json:"canAcceptOrders"`
	CurrentShiftName string     `json:"currentShiftName,omitempty"`
	ReasonCode       string     `json:"reasonCode,omitempty"`
	Message          string     `json:"message"`
	NextOpening      *time.Time `json:"nextOpening,omitempty"`
}

// Evaluate computes the store verdict for the given instant. now must already
// be in the store timezone. Precedence: master switch, then a calendar
// exception for now's date, then the shift schedule. Shifts with malformed
// times are ignored, which fails closed.
func Evaluate(now time.Time, master MasterSwitch, exceptions []CalendarException, shifts []Shift) Verdict {
	if !master.Enabled {
		message := "Store is temporarily closed."
		if master.Note != "" {
			message = master.Note
		}
		return Verdict{
			ReasonCode: ReasonMasterOverride,
			Message:    message,
		}
	}

	if exc, ok := exceptionFor(now, exceptions); ok {
		if exc.IsClosed {
			message := "Store is closed today."
			if exc.Note != "" {
				message = exc.Note
			}
			return Verdict{
				ReasonCode:  ReasonCalendarException,
				Message:     message,
				NextOpening: nextOpening(now, exceptions, shifts),
			}
		}
		message := "Store is open today."
		if exc.Note != "" {
			message = exc.Note
		}
		return Verdict{
			IsOpen:          true,
			CanAcceptOrders: true,
			ReasonCode:      ReasonCalendarException,
			Message:         message,
		}
	}

	var (
		current   *window
		accepting *window
	)
	for _, s := range activeByID(shifts) {
		w, err := windowFor(s, now)
		if err != nil {
			continue
		}
		if !w.contains(now) {
			continue
		}
		if current == nil {
			cw := w
			current = &cw
		}
		if accepting == nil && w.accepting(now) {
			aw := w
			accepting = &aw
		}
	}

	if accepting != nil {
		return Verdict{
			IsOpen:           true,
			CanAcceptOrders:  true,
			CurrentShiftName: accepting.shift.Name,
			Message:          fmt.Sprintf("Now serving: %s.", accepting.shift.Name),
		}
	}
	if current != nil {
		return Verdict{
			IsOpen:           true,
			CurrentShiftName: current.shift.Name,
			ReasonCode:       ReasonPastCutoff,
			Message:          fmt.Sprintf("Ordering for %s has closed for today.", current.shift.Name),
			NextOpening:      nextOpening(now, exceptions, shifts),
		}
	}

	return Verdict{
		ReasonCode:  ReasonOutsideHours,
		Message:     "Store is closed right now.",
		NextOpening: nextOpening(now, exceptions, shifts),
	}
}

// nextOpening scans forward for the earliest shift start after now, skipping
// dates closed by exception. Returns nil when nothing opens within the
// horizon.
func nextOpening(now time.Time, exceptions []CalendarException, shifts []Shift) *time.Time {
	active := activeByID(shifts)
	if len(active) == 0 {
		return nil
	}

	var best *time.Time
	for offset := 0; offset <= nextOpeningHorizonDays; offset++ {
		day := now.AddDate(0, 0, offset)
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		if exc, ok := exceptionFor(day, exceptions); ok && exc.IsClosed {
			continue
		}
		for _, s := range active {
			startMin, err := parseClock(s.StartTime)
			if err != nil {
				continue
			}
			start := midnight.Add(time.Duration(startMin) * time.Minute)
			if !start.After(now) {
				continue
			}
			if best == nil || start.Before(*best) {
				sc := start
				best = &sc
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func exceptionFor(day time.Time, exceptions []CalendarException) (CalendarException, bool) {
	for _, exc := range exceptions {
		if sameDate(exc.Date, day) {
			return exc, true
		}
	}
	return CalendarException{}, false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// activeByID returns the active shifts ordered by id so ties between
// overlapping-in-time occurrences resolve to the oldest shift.
func activeByID(shifts []Shift) []Shift {
	out := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		if s.IsActive {
			out = append(out, s)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
