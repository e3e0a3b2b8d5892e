// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

// DeliveryState represents the admin controlled delivery status
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryDelivered DeliveryState = "delivered"
)

// Order is the permanent record of a finalized checkout. Everything but
// the delivery columns is written once.
type Order struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	OrderNumber       string `gorm:"<-:create;uniqueIndex;not null;size:50" json:"order_number"`
	UserID            uint   `gorm:"<-:create;not null;index" json:"user_id"`
	CheckoutSessionID uint   `gorm:"<-:create;uniqueIndex;not null" json:"checkout_id"`

	// Items are the checkout snapshot, copied as agreed
	Items []lineitem.Line `gorm:"<-:create;serializer:json;type:text;not null" json:"order_items"`

	ShippingAddress checkout.Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	PaymentMethod   string           `gorm:"<-:create;size:50" json:"payment_method"`

	// Financial Information
	ItemsPrice    decimal.Decimal `gorm:"<-:create;type:numeric(14,2);not null" json:"items_price"`
	ShippingPrice decimal.Decimal `gorm:"<-:create;type:numeric(14,2);not null;default:0" json:"shipping_price"`
	TaxPrice      decimal.Decimal `gorm:"<-:create;type:numeric(14,2);not null;default:0" json:"tax_price"`
	TotalPrice    decimal.Decimal `gorm:"<-:create;type:numeric(14,2);not null" json:"total_price"`

	IsPaid       bool                  `gorm:"<-:create;not null" json:"is_paid"`
	PaidAt       *time.Time            `gorm:"<-:create" json:"paid_at"`
	PaymentState checkout.PaymentState `gorm:"<-:create;not null;size:20" json:"payment_status"`

	DeliveryState DeliveryState `gorm:"not null;size:20;default:'pending';index" json:"delivery_status"`
	DeliveredAt   *time.Time    `json:"delivered_at"`

	SourceBuildID *uint `gorm:"<-:create;index" json:"source_build_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// StatusHistory tracks delivery status changes
type StatusHistory struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	OrderID   uint          `gorm:"not null;index" json:"order_id"`
	Status    DeliveryState `gorm:"not null;size:20" json:"status"`
	Comment   string        `gorm:"type:text" json:"comment"`
	CreatedBy uint          `gorm:"index" json:"created_by"` // User ID who made the change
	CreatedAt time.Time     `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (StatusHistory) TableName() string { return "order_status_history" }

// FromSession builds the order for a paid checkout session. Lines, address,
// payment method and total are copied without re-pricing.
func FromSession(s *checkout.Session, now time.Time) *Order {
	var paidAt *time.Time
	if s.PaidAt != nil {
		t := *s.PaidAt
		paidAt = &t
	}
	var buildID *uint
	if s.SourceBuildID != nil {
		id := *s.SourceBuildID
		buildID = &id
	}

	return &Order{
		OrderNumber:       GenerateOrderNumber(now, s.ID),
		UserID:            s.UserID,
		CheckoutSessionID: s.ID,
		Items:             s.Snapshot(),
		ShippingAddress:   s.ShippingAddress,
		PaymentMethod:     s.PaymentMethod,
		ItemsPrice:        s.TotalPrice,
		ShippingPrice:     decimal.Zero,
		TaxPrice:          decimal.Zero,
		TotalPrice:        s.TotalPrice,
		IsPaid:            true,
		PaidAt:            paidAt,
		PaymentState:      s.PaymentState,
		DeliveryState:     DeliveryPending,
		SourceBuildID:     buildID,
	}
}

// GenerateOrderNumber formats ORD-YYYYMMDD-XXXXX from the checkout id
func GenerateOrderNumber(now time.Time, checkoutID uint) string {
	return fmt.Sprintf("ORD-%s-%05d", now.Format("20060102"), checkoutID)
}

// IsDelivered checks if the order was delivered
func (o *Order) IsDelivered() bool {
	return o.DeliveryState == DeliveryDelivered
}

// VisibleTo reports whether the order may be read by userID
func (o *Order) VisibleTo(userID uint, isAdmin bool) bool {
	return isAdmin || (userID != 0 && o.UserID == userID)
}
