package cart

import "testing"

func TestCartAddMergesMatchingLines(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 2})
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 1})
	c.Add(Line{Category: CategorySnack, ItemID: 7, Name: "Murukku", UnitPrice: 25, Quantity: 1})

	lines := c.Snapshot()
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if lines[0].Quantity != 3 {
		t.Fatalf("merged quantity = %d, want 3", lines[0].Quantity)
	}
	if c.ItemCount() != 4 {
		t.Fatalf("ItemCount() = %d, want 4", c.ItemCount())
	}
	if got, want := c.Total(), 40.0*3+25.0; got != want {
		t.Fatalf("Total() = %v, want %v", got, want)
	}
}

func TestCartAddDefaultsQuantityToOne(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryCombo, ItemID: 1, Name: "Breakfast Combo", UnitPrice: 120})
	if c.ItemCount() != 1 {
		t.Fatalf("ItemCount() = %d, want 1", c.ItemCount())
	}
}

func TestCartSetQuantity(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 2})

	c.SetQuantity(CategoryItem, 7, 5)
	if c.ItemCount() != 5 {
		t.Fatalf("ItemCount() = %d, want 5", c.ItemCount())
	}

	c.SetQuantity(CategoryItem, 7, 0)
	if !c.IsEmpty() {
		t.Fatalf("cart should be empty after setting quantity to zero")
	}

	// Unknown lines are a no-op.
	c.SetQuantity(CategoryItem, 99, 3)
	if !c.IsEmpty() {
		t.Fatalf("SetQuantity on a missing line must not create it")
	}
}

func TestCartIncrementDecrement(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategorySnack, ItemID: 3, Name: "Vada", UnitPrice: 30, Quantity: 1})

	c.Increment(CategorySnack, 3)
	if c.ItemCount() != 2 {
		t.Fatalf("ItemCount() = %d, want 2", c.ItemCount())
	}

	c.Decrement(CategorySnack, 3)
	c.Decrement(CategorySnack, 3)
	if !c.IsEmpty() {
		t.Fatalf("decrementing to zero should remove the line")
	}
}

func TestCartSnapshotIsDetached(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 2})

	lines := c.Snapshot()
	lines[0].Quantity = 99

	if c.ItemCount() != 2 {
		t.Fatalf("snapshot mutation leaked into the cart")
	}
}

func TestCartReset(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryCombo, ItemID: 1, Name: "Breakfast Combo", UnitPrice: 120, Quantity: 1})
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 2})

	c.Reset()
	if !c.IsEmpty() || c.Total() != 0 {
		t.Fatalf("Reset() left cart non-empty")
	}
}

func TestCartSnapshotKeepsInsertionOrder(t *testing.T) {
	c := New()
	c.Add(Line{Category: CategoryCombo, ItemID: 1, Name: "Breakfast Combo", UnitPrice: 120, Quantity: 1})
	c.Add(Line{Category: CategoryItem, ItemID: 7, Name: "Idli", UnitPrice: 40, Quantity: 1})
	c.Add(Line{Category: CategorySnack, ItemID: 3, Name: "Vada", UnitPrice: 30, Quantity: 1})
	c.Remove(CategoryItem, 7)
	c.Add(Line{Category: CategoryItem, ItemID: 8, Name: "Dosa", UnitPrice: 60, Quantity: 1})

	lines := c.Snapshot()
	wantNames := []string{"Breakfast Combo", "Vada", "Dosa"}
	if len(lines) != len(wantNames) {
		t.Fatalf("len(lines) = %d, want %d", len(lines), len(wantNames))
	}
	for i, want := range wantNames {
		if lines[i].Name != want {
			t.Fatalf("lines[%d].Name = %q, want %q", i, lines[i].Name, want)
		}
	}
}
