package cart

import "sync"

// LineCategory tags which menu family a cart line came from. Prices and
// names are snapshotted onto the line when it is added, so later menu edits
// never change an existing cart.
type LineCategory string

const (
	CategoryCombo LineCategory = "combo"
	CategoryItem  LineCategory = "item"
	CategorySnack LineCategory = "snack"
)

// Line is a single cart entry. Category plus ItemID identifies a line; the
// same menu id under two categories is two distinct lines.
type Line struct {
	Category  LineCategory `json:"category"`
	ItemID    int64        `json:"itemId"`
	Name      string       `json:"name"`
	UnitPrice float64      `json:"unitPrice"`
	Quantity  int          `json:"quantity"`
}

func (l Line) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type lineKey struct {
	category LineCategory
	itemID   int64
}

// Cart is the in-memory order draft. It is safe for concurrent use; the
// checkout pipeline and the autosave debouncer both read it.
type Cart struct {
	mu    sync.Mutex
	lines map[lineKey]*Line
	order []lineKey
}

func New() *Cart {
	return &Cart{lines: make(map[lineKey]*Line)}
}

// Add puts the line in the cart, or bumps the quantity when a line with the
// same category and item id already exists.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := lineKey{category: line.Category, itemID: line.ItemID}
	if existing, ok := c.lines[key]; ok {
		existing.Quantity += line.Quantity
		return
	}
	stored := line
	c.lines[key] = &stored
	c.order = append(c.order, key)
}

// SetQuantity replaces the quantity outright. Zero or less removes the line.
func (c *Cart) SetQuantity(category LineCategory, itemID int64, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := lineKey{category: category, itemID: itemID}
	line, ok := c.lines[key]
	if !ok {
		return
	}
	if quantity <= 0 {
		c.removeLocked(key)
		return
	}
	line.Quantity = quantity
}

// Increment bumps a line by one.
func (c *Cart) Increment(category LineCategory, itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[lineKey{category: category, itemID: itemID}]; ok {
		line.Quantity++
	}
}

// Decrement drops a line by one, removing it when the quantity reaches zero.
func (c *Cart) Decrement(category LineCategory, itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := lineKey{category: category, itemID: itemID}
	line, ok := c.lines[key]
	if !ok {
		return
	}
	line.Quantity--
	if line.Quantity <= 0 {
		c.removeLocked(key)
	}
}

func (c *Cart) Remove(category LineCategory, itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(lineKey{category: category, itemID: itemID})
}

func (c *Cart) removeLocked(key lineKey) {
	if _, ok := c.lines[key]; !ok {
		return
	}
	delete(c.lines, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ItemCount is the total quantity across all lines, not the line count.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0.0
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Snapshot copies the lines in insertion order. Mutating the result does not
// affect the cart.
func (c *Cart) Snapshot() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.lines[key])
	}
	return out
}

// Reset empties the cart after a successful order.
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = make(map[lineKey]*Line)
	c.order = nil
}
