// internal/domain/pcbuild/entity.go
package pcbuild

import (
	"time"

	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"gorm.io/gorm"
)

// Component categories a build may contain
const (
	CategoryCPU         = "cpu"
	CategoryGPU         = "gpu"
	CategoryRAM         = "ram"
	CategoryStorage     = "storage"
	CategoryMotherboard = "motherboard"
	CategoryPSU         = "psu"
	CategoryCase        = "case"
	CategoryCooling     = "cooling"
	CategoryMonitor     = "monitor"
	CategoryKeyboard    = "keyboard"
	CategoryMouse       = "mouse"
	CategoryHeadset     = "headset"
)

// Build is a user curated set of components. It is owned and edited
// elsewhere; this package only reads it.
type Build struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Name        string         `gorm:"not null;size:100" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	BuildType   string         `gorm:"size:30;default:'custom'" json:"build_type"`
	IsPublic    bool           `gorm:"default:false;index" json:"is_public"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Components []Component `gorm:"foreignKey:BuildID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"components"`
}

// Component is one product slot in a build
type Component struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BuildID   uint   `gorm:"not null;index" json:"build_id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Category  string `gorm:"not null;size:30" json:"category"`
	Quantity  int    `gorm:"not null;default:1" json:"quantity"`
	Notes     string `gorm:"size:500" json:"notes,omitempty"`
}

// TableName overrides
func (Build) TableName() string     { return "pc_builds" }
func (Component) TableName() string { return "pc_build_components" }

// AccessibleBy reports whether actor may price, buy or preview the build.
// Public builds are open to everyone, private ones only to their creator.
func (b *Build) AccessibleBy(actor identity.Owner) bool {
	if b.IsPublic {
		return true
	}
	userID, ok := actor.UserID()
	return ok && userID == b.UserID
}

// EffectiveQuantity returns the component quantity, never below one
func (c Component) EffectiveQuantity() int {
	if c.Quantity < 1 {
		return 1
	}
	return c.Quantity
}
