// internal/domain/catalog/repository.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a catalog reference does not resolve
var ErrProductNotFound = apperr.New(apperr.KindNotFound, "product_not_found", "product not found")

// Lookup resolves catalog references. Catalog CRUD lives elsewhere; this
// core only reads.
type Lookup interface {
	GetProduct(ctx context.Context, id uint) (*Snapshot, error)
}

// Repository reads products from postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProduct loads an active product with its images in display order
func (r *Repository) GetProduct(ctx context.Context, id uint) (*Snapshot, error) {
	var prod Product
	err := dbtx.Conn(ctx, r.db).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Where("id = ? AND is_active = ?", id, true).
		First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound.WithDetails(map[string]interface{}{"product_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return prod.ToSnapshot(), nil
}
