package availability

import (
	"errors"
	"testing"
)

func TestValidateShiftOverlap(t *testing.T) {
	existing := []Shift{
		{ID: 1, Name: "Breakfast", StartTime: "07:30", EndTime: "11:00", CutoffMinutes: 30, IsActive: true},
		{ID: 2, Name: "Night Tiffin", StartTime: "22:00", EndTime: "06:00", CutoffMinutes: 15, IsActive: true},
		{ID: 3, Name: "Paused Lunch", StartTime: "12:00", EndTime: "15:00", CutoffMinutes: 30, IsActive: false},
	}

	tests := []struct {
		name         string
		candidate    Shift
		wantConflict string
	}{
		{
			name:      "non overlapping afternoon slot",
			candidate: Shift{Name: "Tea Time", StartTime: "15:30", EndTime: "17:30", CutoffMinutes: 15},
		},
		{
			name:         "overlaps same day shift",
			candidate:    Shift{Name: "Brunch", StartTime: "10:00", EndTime: "13:00", CutoffMinutes: 15},
			wantConflict: "Breakfast",
		},
		{
			name:         "overnight candidate overlaps overnight shift",
			candidate:    Shift{Name: "Midnight Special", StartTime: "23:00", EndTime: "05:00", CutoffMinutes: 15},
			wantConflict: "Night Tiffin",
		},
		{
			name:         "morning candidate overlaps tail of overnight shift",
			candidate:    Shift{Name: "Early Bird", StartTime: "05:00", EndTime: "07:00", CutoffMinutes: 15},
			wantConflict: "Night Tiffin",
		},
		{
			name:      "clears the overnight tail",
			candidate: Shift{Name: "Mid Morning", StartTime: "06:00", EndTime: "07:00", CutoffMinutes: 15},
		},
		{
			name:      "touching endpoints allowed",
			candidate: Shift{Name: "Lunch", StartTime: "11:00", EndTime: "14:00", CutoffMinutes: 30},
		},
		{
			name:      "inactive shifts do not conflict",
			candidate: Shift{Name: "Lunch", StartTime: "12:30", EndTime: "14:00", CutoffMinutes: 30},
		},
		{
			name:      "editing a shift skips itself",
			candidate: Shift{ID: 1, Name: "Breakfast", StartTime: "07:00", EndTime: "11:30", CutoffMinutes: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShift(tt.candidate, existing)
			if tt.wantConflict == "" {
				if err != nil {
					t.Fatalf("ValidateShift() = %v, want nil", err)
				}
				return
			}
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("ValidateShift() = %v, want ConflictError", err)
			}
			if conflict.ShiftName != tt.wantConflict {
				t.Fatalf("conflict shift = %q, want %q", conflict.ShiftName, tt.wantConflict)
			}
		})
	}
}

func TestValidateShiftFields(t *testing.T) {
	tests := []struct {
		name      string
		candidate Shift
	}{
		{name: "empty name", candidate: Shift{Name: "  ", StartTime: "07:00", EndTime: "09:00"}},
		{name: "negative cutoff", candidate: Shift{Name: "Breakfast", StartTime: "07:00", EndTime: "09:00", CutoffMinutes: -5}},
		{name: "bad start time", candidate: Shift{Name: "Breakfast", StartTime: "7am", EndTime: "09:00"}},
		{name: "bad end time", candidate: Shift{Name: "Breakfast", StartTime: "07:00", EndTime: "25:00"}},
		{name: "zero length shift", candidate: Shift{Name: "Breakfast", StartTime: "07:00", EndTime: "07:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateShift(tt.candidate, nil); err == nil {
				t.Fatalf("ValidateShift() = nil, want error")
			}
		})
	}
}
