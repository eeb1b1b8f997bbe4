package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Shift is a recurring daily serving window. Times are stored as "HH:MM"
// wall-clock strings in the store timezone. A shift whose end is at or before
// its start wraps past midnight into the next day.
type Shift struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	CutoffMinutes int    `json:"cutoffMinutes"`
	IsActive      bool   `json:"isActive"`
}

// MasterSwitch is the single-row store kill switch. When disabled it wins
// over every shift and calendar exception.
type MasterSwitch struct {
	Enabled bool   `json:"isEnabled"`
	Note    string `json:"note"`
}

// CalendarException overrides shift logic for one calendar date, in either
// direction: a closed exception shuts an otherwise open day, an open one
// forces the store open on a day no shift covers.
type CalendarException struct {
	Date     time.Time `json:"date"`
	IsClosed bool      `json:"isClosed"`
	Note     string    `json:"note"`
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return hour*60 + minute, nil
}

// IsOvernight reports whether the shift wraps past midnight. Malformed times
// count as not overnight; callers reject those separately.
func (s Shift) IsOvernight() bool {
	start, err := parseClock(s.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(s.EndTime)
	if err != nil {
		return false
	}
	return end < start
}

// window is a concrete shift occurrence anchored to real instants.
type window struct {
	shift  Shift
	start  time.Time
	end    time.Time
	cutoff time.Time
}

// windowFor resolves the shift occurrence relevant to now. For an overnight
// shift the occurrence that contains now may have started the previous day:
// when now's wall-clock time is at or before the end time we anchor the start
// a day earlier, otherwise the occurrence starts today and ends tomorrow.
func windowFor(s Shift, now time.Time) (window, error) {
	startMin, err := parseClock(s.StartTime)
	if err != nil {
		return window{}, err
	}
	endMin, err := parseClock(s.EndTime)
	if err != nil {
		return window{}, err
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := midnight.Add(time.Duration(startMin) * time.Minute)
	end := midnight.Add(time.Duration(endMin) * time.Minute)

	if endMin < startMin {
		nowMin := now.Hour()*60 + now.Minute()
		if nowMin <= endMin {
			start = start.AddDate(0, 0, -1)
		} else {
			end = end.AddDate(0, 0, 1)
		}
	}

	return window{
		shift:  s,
		start:  start,
		end:    end,
		cutoff: end.Add(-time.Duration(s.CutoffMinutes) * time.Minute),
	}, nil
}

// contains uses inclusive bounds on both ends, so a shift ending at 06:00 is
// still open at exactly 06:00.
func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

func (w window) accepting(t time.Time) bool {
	return w.contains(t) && !t.After(w.cutoff)
}
