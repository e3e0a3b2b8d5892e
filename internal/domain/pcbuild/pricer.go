// internal/domain/pcbuild/pricer.go
package pcbuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/catalog"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

// DefaultPlaceholderImage is shown for builds and components without images
const DefaultPlaceholderImage = "https://via.placeholder.com/150?text=No+Image"

// Shortfall describes a component the catalog cannot currently cover
type Shortfall struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
}

// Quote is the priced view of a build at one point in time
type Quote struct {
	BuildID    uint            `json:"build_id"`
	Name       string          `json:"name"`
	Total      decimal.Decimal `json:"total_price"`
	Image      string          `json:"image"`
	Lines      []lineitem.Line `json:"lines"`
	Unresolved []uint          `json:"unresolved_products,omitempty"`
	OutOfStock []Shortfall     `json:"out_of_stock,omitempty"`
}

// BuildLine returns the single cart line representing the whole build
func (q *Quote) BuildLine(quantity int) lineitem.Line {
	return lineitem.Line{
		Ref:       lineitem.BuildRef(q.BuildID),
		Name:      q.Name,
		ImageURL:  q.Image,
		UnitPrice: q.Total,
		Quantity:  quantity,
	}
}

// Pricer derives prices for builds from the catalog
type Pricer struct {
	catalog     catalog.Lookup
	placeholder string
}

// NewPricer creates a new build pricer
func NewPricer(lookup catalog.Lookup, placeholder string) *Pricer {
	if placeholder == "" {
		placeholder = DefaultPlaceholderImage
	}
	return &Pricer{catalog: lookup, placeholder: placeholder}
}

// Price computes Σ price × quantity over the components that resolve.
// A component whose product is gone contributes nothing and is listed in
// Unresolved. Only lookup failures other than not-found abort pricing.
func (p *Pricer) Price(ctx context.Context, b *Build) (*Quote, error) {
	q := &Quote{
		BuildID: b.ID,
		Name:    b.Name,
		Total:   decimal.Zero,
		Lines:   make([]lineitem.Line, 0, len(b.Components)),
	}

	for _, c := range b.Components {
		prod, err := p.catalog.GetProduct(ctx, c.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			q.Unresolved = append(q.Unresolved, c.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to price component %d of build %d: %w", c.ProductID, b.ID, err)
		}

		qty := c.EffectiveQuantity()
		image := prod.FirstImage()
		if q.Image == "" {
			q.Image = p.imageOrPlaceholder(image)
		}

		line := lineitem.Line{
			Ref:       lineitem.CatalogRef(prod.ID),
			Name:      prod.Name,
			ImageURL:  p.imageOrPlaceholder(image),
			UnitPrice: prod.Price,
			Quantity:  qty,
		}
		q.Lines = append(q.Lines, line)
		q.Total = q.Total.Add(line.Total())

		if prod.CountInStock < qty {
			q.OutOfStock = append(q.OutOfStock, Shortfall{
				ProductID: prod.ID,
				Name:      prod.Name,
				Required:  qty,
				Available: prod.CountInStock,
			})
		}
	}

	if q.Image == "" {
		q.Image = p.placeholder
	}
	return q, nil
}

func (p *Pricer) imageOrPlaceholder(url string) string {
	if url == "" {
		return p.placeholder
	}
	return url
}
