// internal/domain/pcbuild/service.go
package pcbuild

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

// Service resolves builds on behalf of an acting owner
type Service struct {
	builds  Source
	pricer  *Pricer
	preview *Pricer
}

// NewService creates a new build service. Purchases are priced with
// pricer; previews use previewPricer, which may read through a cache.
func NewService(builds Source, pricer, previewPricer *Pricer) *Service {
	if previewPricer == nil {
		previewPricer = pricer
	}
	return &Service{
		builds:  builds,
		pricer:  pricer,
		preview: previewPricer,
	}
}

// Resolve loads the build, checks that actor may use it and prices it
func (s *Service) Resolve(ctx context.Context, actor identity.Owner, buildID uint) (*Build, *Quote, error) {
	b, err := s.authorized(ctx, actor, buildID)
	if err != nil {
		return nil, nil, err
	}
	q, err := s.pricer.Price(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	return b, q, nil
}

// Preview is the checkout preview of a build
type Preview struct {
	BuildID             uint                `json:"build_id"`
	Name                string              `json:"name"`
	Description         string              `json:"description"`
	Lines               []lineitem.Line     `json:"checkout_items"`
	TotalPrice          decimal.Decimal     `json:"total_price"`
	Image               string              `json:"image"`
	OutOfStock          []Shortfall         `json:"out_of_stock_items"`
	Unresolved          []uint              `json:"unresolved_products"`
	CompatibilityStatus CompatibilityStatus `json:"compatibility_status"`
	CompatibilityIssues []Issue             `json:"compatibility_issues"`
	Purchasable         bool                `json:"purchasable"`
}

// Preview prices the build for display without creating anything
func (s *Service) Preview(ctx context.Context, actor identity.Owner, buildID uint) (*Preview, error) {
	b, err := s.authorized(ctx, actor, buildID)
	if err != nil {
		return nil, err
	}
	q, err := s.preview.Price(ctx, b)
	if err != nil {
		return nil, err
	}

	status, issues := CheckCompatibility(b.Components)
	p := &Preview{
		BuildID:             b.ID,
		Name:                b.Name,
		Description:         b.Description,
		Lines:               q.Lines,
		TotalPrice:          q.Total,
		Image:               q.Image,
		OutOfStock:          q.OutOfStock,
		Unresolved:          q.Unresolved,
		CompatibilityStatus: status,
		CompatibilityIssues: issues,
	}
	if p.OutOfStock == nil {
		p.OutOfStock = []Shortfall{}
	}
	if p.Unresolved == nil {
		p.Unresolved = []uint{}
	}
	if p.CompatibilityIssues == nil {
		p.CompatibilityIssues = []Issue{}
	}
	p.Purchasable = len(q.Lines) > 0 && len(q.OutOfStock) == 0
	return p, nil
}

func (s *Service) authorized(ctx context.Context, actor identity.Owner, buildID uint) (*Build, error) {
	b, err := s.builds.GetBuild(ctx, buildID)
	if err != nil {
		return nil, err
	}
	if !b.AccessibleBy(actor) {
		return nil, ErrBuildNotAuthorized.WithDetails(map[string]interface{}{"build_id": buildID})
	}
	return b, nil
}
