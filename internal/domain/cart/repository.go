// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound = apperr.New(apperr.KindNotFound, "cart_not_found", "cart not found")
	ErrLineNotFound = apperr.New(apperr.KindNotFound, "line_not_found", "cart line not found")
	// ErrVersionConflict means another writer changed the cart first
	ErrVersionConflict = apperr.New(apperr.KindConflict, "cart_conflict", "cart was modified concurrently, please retry")
)

// Store persists carts with optimistic versioning. Save and Delete fail
// with ErrVersionConflict when the stored version moved on.
type Store interface {
	FindByOwner(ctx context.Context, owner identity.Owner) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, c *Cart) error
}

// Record is the carts table row
type Record struct {
	ID         uint            `gorm:"primaryKey"`
	OwnerKind  string          `gorm:"not null;size:10;uniqueIndex:idx_carts_owner"`
	OwnerID    string          `gorm:"not null;size:100;uniqueIndex:idx_carts_owner"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Version    int             `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Lines []LineRecord `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// LineRecord is the cart_lines table row
type LineRecord struct {
	ID        uint            `gorm:"primaryKey"`
	CartID    uint            `gorm:"not null;index"`
	Position  int             `gorm:"not null"`
	RefKind   string          `gorm:"not null;size:10"`
	RefID     uint            `gorm:"not null"`
	Name      string          `gorm:"not null;size:255"`
	ImageURL  string          `gorm:"size:500"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Quantity  int             `gorm:"not null"`
	Size      string          `gorm:"size:50"`
	Color     string          `gorm:"size:50"`
}

// TableName overrides
func (Record) TableName() string     { return "carts" }
func (LineRecord) TableName() string { return "cart_lines" }

// Repository stores carts in postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cart repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByOwner loads the owner's cart or returns ErrCartNotFound
func (r *Repository) FindByOwner(ctx context.Context, owner identity.Owner) (*Cart, error) {
	var rec Record
	err := dbtx.Conn(ctx, r.db).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_kind = ? AND owner_id = ?", string(owner.Kind()), owner.ID()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for %s: %w", owner, err)
	}
	return rec.toCart()
}

// Create inserts a new cart. A concurrent create for the same owner is
// reported as ErrVersionConflict.
func (r *Repository) Create(ctx context.Context, c *Cart) error {
	rec := fromCart(c)
	rec.Version = 1
	err := dbtx.Conn(ctx, r.db).Create(&rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	c.ID = rec.ID
	c.Version = rec.Version
	c.CreatedAt = rec.CreatedAt
	c.UpdatedAt = rec.UpdatedAt
	return nil
}

// Save writes owner, total and lines if the stored version still matches c.Version
func (r *Repository) Save(ctx context.Context, c *Cart) error {
	conn := dbtx.Conn(ctx, r.db)
	now := time.Now().UTC()

	res := conn.Model(&Record{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Updates(map[string]interface{}{
			"owner_kind":  string(c.Owner.Kind()),
			"owner_id":    c.Owner.ID(),
			"total_price": c.TotalPrice,
			"version":     c.Version + 1,
			"updated_at":  now,
		})
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return ErrVersionConflict
	}
	if res.Error != nil {
		return fmt.Errorf("failed to update cart %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	if err := conn.Where("cart_id = ?", c.ID).Delete(&LineRecord{}).Error; err != nil {
		return fmt.Errorf("failed to replace lines of cart %d: %w", c.ID, err)
	}
	if lines := lineRecords(c.ID, c.Lines); len(lines) > 0 {
		if err := conn.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to write lines of cart %d: %w", c.ID, err)
		}
	}

	c.Version++
	c.UpdatedAt = now
	return nil
}

// Delete removes the cart if the stored version still matches c.Version
func (r *Repository) Delete(ctx context.Context, c *Cart) error {
	conn := dbtx.Conn(ctx, r.db)

	res := conn.Where("id = ? AND version = ?", c.ID, c.Version).Delete(&Record{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	// no-op where the foreign key already cascaded
	if err := conn.Where("cart_id = ?", c.ID).Delete(&LineRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete lines of cart %d: %w", c.ID, err)
	}
	return nil
}

func fromCart(c *Cart) Record {
	return Record{
		ID:         c.ID,
		OwnerKind:  string(c.Owner.Kind()),
		OwnerID:    c.Owner.ID(),
		TotalPrice: c.TotalPrice,
		Version:    c.Version,
		Lines:      lineRecords(c.ID, c.Lines),
	}
}

func lineRecords(cartID uint, lines []lineitem.Line) []LineRecord {
	out := make([]LineRecord, 0, len(lines))
	for i, l := range lines {
		out = append(out, LineRecord{
			CartID:    cartID,
			Position:  i,
			RefKind:   string(l.Ref.Kind),
			RefID:     l.Ref.ID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	return out
}

func (rec *Record) toCart() (*Cart, error) {
	owner, err := identity.Parse(rec.OwnerKind, rec.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("cart %d has a corrupt owner: %w", rec.ID, err)
	}
	lines := make([]lineitem.Line, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		lines = append(lines, lineitem.Line{
			Ref:       lineitem.Ref{Kind: lineitem.Kind(l.RefKind), ID: l.RefID},
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
		})
	}
	return &Cart{
		ID:         rec.ID,
		Owner:      owner,
		Lines:      lines,
		TotalPrice: rec.TotalPrice,
		Version:    rec.Version,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
