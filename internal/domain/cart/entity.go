// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

// Cart is the basket of exactly one owner, either a user or a guest session
type Cart struct {
	ID         uint
	Owner      identity.Owner
	Lines      []lineitem.Line
	TotalPrice decimal.Decimal
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Empty returns the cart shape handed out when owner has no cart yet
func Empty(owner identity.Owner) *Cart {
	return &Cart{
		Owner:      owner,
		Lines:      []lineitem.Line{},
		TotalPrice: decimal.Zero,
	}
}

// Persisted reports whether the cart exists in storage
func (c *Cart) Persisted() bool {
	return c.ID != 0
}

// Totals summarizes the cart contents
type Totals struct {
	ItemCount     int             `json:"item_count"`     // Number of distinct lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`
}

// Totals returns the cart summary
func (c *Cart) Totals() Totals {
	t := Totals{ItemCount: len(c.Lines), SubTotal: c.TotalPrice}
	for _, l := range c.Lines {
		t.TotalQuantity += l.Quantity
	}
	return t
}

// addLine increments a line with the same key or appends l
func (c *Cart) addLine(l lineitem.Line) {
	if i := lineitem.IndexOf(c.Lines, l.Key()); i >= 0 {
		c.Lines[i].Quantity += l.Quantity
	} else {
		c.Lines = append(c.Lines, l)
	}
	c.recompute()
}

// setQuantity replaces the quantity of the keyed line; quantity <= 0 removes it
func (c *Cart) setQuantity(key lineitem.Key, quantity int) bool {
	i := lineitem.IndexOf(c.Lines, key)
	if i < 0 {
		return false
	}
	if quantity <= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	} else {
		c.Lines[i].Quantity = quantity
	}
	c.recompute()
	return true
}

func (c *Cart) removeLine(key lineitem.Key) bool {
	return c.setQuantity(key, 0)
}

// absorb folds every line of other into c, summing quantities on equal keys
func (c *Cart) absorb(other []lineitem.Line) {
	for _, l := range other {
		if i := lineitem.IndexOf(c.Lines, l.Key()); i >= 0 {
			c.Lines[i].Quantity += l.Quantity
			continue
		}
		c.Lines = append(c.Lines, l)
	}
	c.recompute()
}

func (c *Cart) recompute() {
	c.TotalPrice = lineitem.Sum(c.Lines)
}
