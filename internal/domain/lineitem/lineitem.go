// internal/domain/lineitem/lineitem.go
package lineitem

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/pkg/money"
)

// Kind distinguishes catalog purchases from priced build purchases
type Kind string

const (
	KindCatalog Kind = "catalog"
	KindBuild   Kind = "build"
)

// Ref points at the purchasable thing behind a line. A line carries exactly
// one Ref, so it is either a catalog product or a PC build, never both.
type Ref struct {
	Kind Kind `json:"kind"`
	ID   uint `json:"id"`
}

// CatalogRef references a catalog product
func CatalogRef(productID uint) Ref {
	return Ref{Kind: KindCatalog, ID: productID}
}

// BuildRef references a PC build
func BuildRef(buildID uint) Ref {
	return Ref{Kind: KindBuild, ID: buildID}
}

// Valid reports whether r names a known kind and a non-zero id
func (r Ref) Valid() bool {
	return (r.Kind == KindCatalog || r.Kind == KindBuild) && r.ID != 0
}

// IsBuild reports whether r references a PC build
func (r Ref) IsBuild() bool {
	return r.Kind == KindBuild
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Key is the identity of a line for merging and deduplication
type Key struct {
	Ref   Ref    `json:"ref"`
	Size  string `json:"size"`
	Color string `json:"color"`
}

// Line is one priced, quantified entry in a cart, checkout snapshot or order
type Line struct {
	Ref       Ref             `json:"ref"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
}

// Key returns the identity key of the line
func (l Line) Key() Key {
	return Key{Ref: l.Ref, Size: l.Size, Color: l.Color}
}

// IsBuildLine reports whether the line is a priced PC build
func (l Line) IsBuildLine() bool {
	return l.Ref.IsBuild()
}

// Total returns UnitPrice × Quantity
func (l Line) Total() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

// Sum returns Σ UnitPrice × Quantity over lines
func Sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

// Clone returns an independent copy of lines
func Clone(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

// IndexOf returns the index of the line with the given key, or -1
func IndexOf(lines []Line, key Key) int {
	for i := range lines {
		if lines[i].Key() == key {
			return i
		}
	}
	return -1
}
