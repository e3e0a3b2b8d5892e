// internal/domain/checkout/entity.go
package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

// PaymentState represents the payment side of a checkout
type PaymentState string

const (
	PaymentPending PaymentState = "pending"
	PaymentPaid    PaymentState = "paid"
)

// FinalizationState represents whether a checkout became an order
type FinalizationState string

const (
	FinalizationOpen      FinalizationState = "open"
	FinalizationFinalized FinalizationState = "finalized"
)

// Address is a shipping address. It is written once with its session or order.
type Address struct {
	Address    string `gorm:"<-:create;size:255" json:"address"`
	City       string `gorm:"<-:create;size:100" json:"city"`
	PostalCode string `gorm:"<-:create;size:20" json:"postal_code"`
	Country    string `gorm:"<-:create;size:100" json:"country"`
}

// Missing returns the names of empty address fields
func (a Address) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"address", a.Address},
		{"city", a.City},
		{"postal_code", a.PostalCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Session is one attempt to purchase a fixed set of lines. Lines, total,
// owner, address and payment method are insert-only columns.
type Session struct {
	ID                uint                   `gorm:"primaryKey" json:"id"`
	UserID            uint                   `gorm:"<-:create;not null;index" json:"user_id"`
	Lines             []lineitem.Line        `gorm:"<-:create;serializer:json;type:text;not null" json:"checkout_items"`
	ShippingAddress   Address                `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod     string                 `gorm:"<-:create;size:50" json:"payment_method"`
	TotalPrice        decimal.Decimal        `gorm:"<-:create;type:numeric(14,2);not null" json:"total_price"`
	PaymentState      PaymentState           `gorm:"not null;size:20;default:'pending'" json:"payment_status"`
	PaidAt            *time.Time             `json:"paid_at"`
	PaymentDetails    map[string]interface{} `gorm:"serializer:json;type:text" json:"payment_details,omitempty"`
	FinalizationState FinalizationState      `gorm:"not null;size:20;default:'open';index" json:"finalization_status"`
	FinalizedAt       *time.Time             `json:"finalized_at"`
	SourceBuildID     *uint                  `gorm:"<-:create;index" json:"source_build_id,omitempty"`
	IsBuildCheckout   bool                   `gorm:"<-:create;default:false" json:"is_build_checkout"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// TableName overrides the table name
func (Session) TableName() string {
	return "checkout_sessions"
}

// IsPaid reports whether payment was recorded
func (s *Session) IsPaid() bool {
	return s.PaymentState == PaymentPaid
}

// IsFinalized reports whether the session already produced an order
func (s *Session) IsFinalized() bool {
	return s.FinalizationState == FinalizationFinalized
}

// Snapshot returns a copy of the agreed lines
func (s *Session) Snapshot() []lineitem.Line {
	return lineitem.Clone(s.Lines)
}

// OwnedBy reports whether userID owns the session
func (s *Session) OwnedBy(userID uint) bool {
	return userID != 0 && s.UserID == userID
}
