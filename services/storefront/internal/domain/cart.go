package domain

import "fmt"

// LineItem is one product in the cart. Name and UnitPrice are captured when
// the product is first added and never re-synced with the catalog.
type LineItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	ImageRef  string `json:"imageRef,omitempty"`
	Category  string `json:"category,omitempty"`
}

// Subtotal is UnitPrice times Quantity.
func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Times(li.Quantity)
}

// Cart is an ordered collection of line items with at most one line per id
// and every quantity at least 1.
type Cart struct {
	Items []LineItem `json:"items"`
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}}
}

// FindItemIndex returns the index of the line with id, or -1.
func (c *Cart) FindItemIndex(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add merges delta units of p into the cart. An existing line has its
// quantity increased by delta (and is removed if that drops it below 1); a
// new line starts at max(1, delta) with the product's captured price.
func (c *Cart) Add(p CartProduct, delta int) {
	if i := c.FindItemIndex(p.id); i >= 0 {
		c.setAt(i, c.Items[i].Quantity+delta)
		return
	}
	c.Items = append(c.Items, LineItem{
		ID:        p.id,
		Name:      p.name,
		UnitPrice: p.unitPrice,
		Quantity:  max(1, delta),
		ImageRef:  p.imageRef,
		Category:  p.category,
	})
}

// Remove drops the line with id. It reports whether a line was removed.
func (c *Cart) Remove(id string) bool {
	i := c.FindItemIndex(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// SetQuantity replaces the quantity of the line with id; q <= 0 removes the
// line. It reports whether the cart changed.
func (c *Cart) SetQuantity(id string, q int) bool {
	i := c.FindItemIndex(id)
	if i < 0 {
		return false
	}
	if c.Items[i].Quantity == q {
		return false
	}
	c.setAt(i, q)
	return true
}

func (c *Cart) setAt(i, q int) {
	if q <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return
	}
	c.Items[i].Quantity = q
}

// Total is the sum of all line subtotals.
func (c *Cart) Total() Money {
	var total Money
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items}
}

// Validate checks the cart invariants. Persisted carts that fail it are
// treated as corrupt.
func (c *Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.ID == "" {
			return fmt.Errorf("%w: line without id", ErrCorruptCart)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("%w: duplicate line %s", ErrCorruptCart, item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line %s has quantity %d", ErrCorruptCart, item.ID, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: line %s has negative price", ErrCorruptCart, item.ID)
		}
	}
	return nil
}
