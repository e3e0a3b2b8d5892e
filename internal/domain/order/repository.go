// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"github.com/your-org/pcstore-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = apperr.New(apperr.KindNotFound, "order_not_found", "order not found")
	ErrOrderNotAuthorized = apperr.New(apperr.KindNotAuthorized, "order_not_authorized", "not authorized to access this order")
	// ErrDuplicateOrder means the checkout session already has an order
	ErrDuplicateOrder = apperr.New(apperr.KindAlreadyFinalized, "already_finalized", "checkout already finalized")
)

// Store persists orders
type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id uint) (*Order, error)
	ListByUser(ctx context.Context, userID uint, page, limit int) ([]Order, int64, error)
	MarkDelivered(ctx context.Context, id uint, at time.Time, history StatusHistory) (bool, error)
}

// Repository stores orders in postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new order repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the order. A second order for the same checkout session
// fails with ErrDuplicateOrder.
func (r *Repository) Create(ctx context.Context, o *Order) error {
	err := dbtx.Conn(ctx, r.db).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateOrder.WithDetails(map[string]interface{}{"checkout_id": o.CheckoutSessionID})
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Get retrieves a single order by ID
func (r *Repository) Get(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := dbtx.Conn(ctx, r.db).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound.WithDetails(map[string]interface{}{"order_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// ListByUser returns one page of the user's orders, newest first
func (r *Repository) ListByUser(ctx context.Context, userID uint, page, limit int) ([]Order, int64, error) {
	var (
		orders []Order
		total  int64
	)
	query := dbtx.Conn(ctx, r.db).Model(&Order{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, total, nil
}

// MarkDelivered moves a pending order to delivered and records the change
func (r *Repository) MarkDelivered(ctx context.Context, id uint, at time.Time, history StatusHistory) (bool, error) {
	conn := dbtx.Conn(ctx, r.db)
	res := conn.Model(&Order{}).
		Where("id = ? AND delivery_state = ?", id, DeliveryPending).
		Select("delivery_state", "delivered_at", "updated_at").
		Updates(&Order{DeliveryState: DeliveryDelivered, DeliveredAt: &at, UpdatedAt: at})
	if res.Error != nil {
		return false, fmt.Errorf("failed to update delivery of order %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	history.OrderID = id
	if err := conn.Create(&history).Error; err != nil {
		return false, fmt.Errorf("failed to record status history of order %d: %w", id, err)
	}
	return true, nil
}
