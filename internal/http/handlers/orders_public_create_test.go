package handlers

import "testing"

func TestCollectOrderLines(t *testing.T) {
	req := publicOrderCreateRequest{
		ComboLines: []publicOrderLine{{ItemID: 1, Name: "Morning Combo", UnitPrice: 120, Quantity: 1}},
		ItemLines:  []publicOrderLine{{ItemID: 4, Name: "Idli", UnitPrice: 40, Quantity: 2}},
		SnackLines: []publicOrderLine{{ItemID: 9, Name: "Vada", UnitPrice: 25, Quantity: 3}},
	}

	lines := collectOrderLines(req)
	if len(lines) != 3 {
		t.Fatalf("collectOrderLines returned %d lines, want 3", len(lines))
	}

	wantCategories := []string{"combo", "item", "snack"}
	wantNames := []string{"Morning Combo", "Idli", "Vada"}
	for i, line := range lines {
		if line.category != wantCategories[i] {
			t.Errorf("line %d category = %q, want %q", i, line.category, wantCategories[i])
		}
		if line.payload.Name != wantNames[i] {
			t.Errorf("line %d name = %q, want %q", i, line.payload.Name, wantNames[i])
		}
	}
}

func TestOrderLinesValid(t *testing.T) {
	good := publicOrderLine{ItemID: 4, Name: "Idli", UnitPrice: 40, Quantity: 2}

	tests := []struct {
		name  string
		lines []taggedOrderLine
		want  bool
	}{
		{"valid single line", []taggedOrderLine{{category: "item", payload: good}}, true},
		{"free line is valid", []taggedOrderLine{{category: "snack", payload: publicOrderLine{ItemID: 9, Name: "Chutney", UnitPrice: 0, Quantity: 1}}}, true},
		{"zero quantity", []taggedOrderLine{{category: "item", payload: publicOrderLine{ItemID: 4, Name: "Idli", UnitPrice: 40, Quantity: 0}}}, false},
		{"negative quantity", []taggedOrderLine{{category: "item", payload: publicOrderLine{ItemID: 4, Name: "Idli", UnitPrice: 40, Quantity: -1}}}, false},
		{"negative price", []taggedOrderLine{{category: "item", payload: publicOrderLine{ItemID: 4, Name: "Idli", UnitPrice: -1, Quantity: 1}}}, false},
		{"blank name", []taggedOrderLine{{category: "item", payload: publicOrderLine{ItemID: 4, Name: "   ", UnitPrice: 40, Quantity: 1}}}, false},
		{"one bad line spoils the batch", []taggedOrderLine{
			{category: "item", payload: good},
			{category: "snack", payload: publicOrderLine{ItemID: 9, Name: "Vada", UnitPrice: 25, Quantity: 0}},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderLinesValid(tt.lines); got != tt.want {
				t.Errorf("orderLinesValid() = %v, want %v", got, tt.want)
			}
		})
	}
}
