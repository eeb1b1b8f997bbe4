package availability

import (
	"fmt"
	"strings"
)

// ConflictError reports which existing shift a candidate collides with.
type ConflictError struct {
	ShiftName string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shift overlaps with %q", e.ShiftName)
}

// segment is a half-open [start,end) span in minutes since midnight. An
// overnight shift splits into an evening and a morning segment so overlap
// checks never have to reason across the midnight boundary.
type segment struct {
	start int
	end   int
}

func segmentsOf(startMin, endMin int) []segment {
	if endMin >= startMin {
		return []segment{{start: startMin, end: endMin}}
	}
	return []segment{
		{start: startMin, end: 24 * 60},
		{start: 0, end: endMin},
	}
}

// overlaps uses strict inequality so shifts that merely touch, like
// 06:00-12:00 and 12:00-18:00, are allowed.
func overlaps(a, b segment) bool {
	return a.start < b.end && b.start < a.end
}

// ValidateShift checks the candidate's fields and rejects it when its span
// overlaps any other active shift. The candidate's own id is skipped so edits
// do not conflict with themselves. Callers run this inside the same
// transaction that reads the existing set.
func ValidateShift(candidate Shift, existing []Shift) error {
	if strings.TrimSpace(candidate.Name) == "" {
		return fmt.Errorf("shift name is required")
	}
	if candidate.CutoffMinutes < 0 {
		return fmt.Errorf("cutoff minutes must not be negative")
	}

	startMin, err := parseClock(candidate.StartTime)
	if err != nil {
		return err
	}
	endMin, err := parseClock(candidate.EndTime)
	if err != nil {
		return err
	}
	if startMin == endMin {
		return fmt.Errorf("shift start and end must differ")
	}

	candidateSegs := segmentsOf(startMin, endMin)
	for _, other := range existing {
		if other.ID == candidate.ID || !other.IsActive {
			continue
		}
		otherStart, err := parseClock(other.StartTime)
		if err != nil {
			continue
		}
		otherEnd, err := parseClock(other.EndTime)
		if err != nil {
			continue
		}
		for _, cs := range candidateSegs {
			for _, os := range segmentsOf(otherStart, otherEnd) {
				if overlaps(cs, os) {
					return &ConflictError{ShiftName: other.Name}
				}
			}
		}
	}
	return nil
}
