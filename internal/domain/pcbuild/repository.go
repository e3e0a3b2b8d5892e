// internal/domain/pcbuild/repository.go
package pcbuild

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

var (
	ErrBuildNotFound      = apperr.New(apperr.KindNotFound, "build_not_found", "PC build not found")
	ErrBuildNotAuthorized = apperr.New(apperr.KindNotAuthorized, "build_not_authorized", "not authorized to use this PC build")
)

// Source loads builds with their components
type Source interface {
	GetBuild(ctx context.Context, id uint) (*Build, error)
}

// Repository reads builds from postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new build repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBuild loads a build and its components in insertion order
func (r *Repository) GetBuild(ctx context.Context, id uint) (*Build, error) {
	var b Build
	err := dbtx.Conn(ctx, r.db).
		Preload("Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBuildNotFound.WithDetails(map[string]interface{}{"build_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load build %d: %w", id, err)
	}
	return &b, nil
}
