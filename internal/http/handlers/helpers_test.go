package handlers

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "plain ten digits", input: "9876543210", want: "9876543210", ok: true},
		{name: "with country code", input: "+919876543210", want: "9876543210", ok: true},
		{name: "with leading zero", input: "09876543210", want: "9876543210", ok: true},
		{name: "with spaces", input: "98765 43210", want: "9876543210", ok: true},
		{name: "starts below six", input: "5876543210", ok: false},
		{name: "too short", input: "987654321", ok: false},
		{name: "too long", input: "98765432101", ok: false},
		{name: "letters", input: "98765abcde", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizePhone(tt.input)
			if ok != tt.ok {
				t.Fatalf("normalizePhone(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("normalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
