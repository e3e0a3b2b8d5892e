// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable catalog entry (laptops, desktops, components)
type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SKU          string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string          `gorm:"not null;size:255" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price"`
	CountInStock int             `gorm:"not null;default:0" json:"count_in_stock"`
	Category     string          `gorm:"size:50;index" json:"category"`
	Brand        string          `gorm:"size:100" json:"brand"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	Images []ProductImage `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"images,omitempty"`
}

// ProductImage represents product images
type ProductImage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	URL       string    `gorm:"not null;size:500" json:"url"`
	AltText   string    `gorm:"size:255" json:"alt_text"`
	SortOrder int       `gorm:"default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Product) TableName() string      { return "products" }
func (ProductImage) TableName() string { return "product_images" }

// Snapshot is the read-only view of a product consumed by carts and builds
type Snapshot struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Images       []string        `json:"images"`
	CountInStock int             `json:"count_in_stock"`
	Category     string          `json:"category"`
}

// FirstImage returns the first image url, or "" when the product has none
func (s *Snapshot) FirstImage() string {
	if len(s.Images) == 0 {
		return ""
	}
	return s.Images[0]
}

// ToSnapshot projects the entity into a Snapshot
func (p *Product) ToSnapshot() *Snapshot {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.URL != "" {
			images = append(images, img.URL)
		}
	}
	return &Snapshot{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Images:       images,
		CountInStock: p.CountInStock,
		Category:     p.Category,
	}
}
