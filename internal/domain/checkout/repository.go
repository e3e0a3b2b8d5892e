// internal/domain/checkout/repository.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/pcstore-backend/internal/infrastructure/database/dbtx"
	"gorm.io/gorm"
)

// Store persists checkout sessions. The Mark* calls are conditional and
// report false when the session is no longer open.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uint) (*Session, error)
	MarkPaid(ctx context.Context, id uint, paidAt time.Time, details map[string]interface{}) (bool, error)
	MarkFinalized(ctx context.Context, id uint, at time.Time) (bool, error)
}

// Repository stores checkout sessions in postgres
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new checkout repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new session
func (r *Repository) Create(ctx context.Context, s *Session) error {
	if err := dbtx.Conn(ctx, r.db).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

// Get loads a session by id
func (r *Repository) Get(ctx context.Context, id uint) (*Session, error) {
	var s Session
	err := dbtx.Conn(ctx, r.db).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound.WithDetails(map[string]interface{}{"checkout_id": id})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkout session %d: %w", id, err)
	}
	return &s, nil
}

// MarkPaid moves an open session to paid
func (r *Repository) MarkPaid(ctx context.Context, id uint, paidAt time.Time, details map[string]interface{}) (bool, error) {
	res := dbtx.Conn(ctx, r.db).
		Model(&Session{}).
		Where("id = ? AND finalization_state = ?", id, FinalizationOpen).
		Select("payment_state", "paid_at", "payment_details", "updated_at").
		Updates(&Session{
			PaymentState:   PaymentPaid,
			PaidAt:         &paidAt,
			PaymentDetails: details,
			UpdatedAt:      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to record payment for checkout %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkFinalized moves a paid, open session to finalized
func (r *Repository) MarkFinalized(ctx context.Context, id uint, at time.Time) (bool, error) {
	res := dbtx.Conn(ctx, r.db).
		Model(&Session{}).
		Where("id = ? AND payment_state = ? AND finalization_state = ?", id, PaymentPaid, FinalizationOpen).
		Select("finalization_state", "finalized_at", "updated_at").
		Updates(&Session{
			FinalizationState: FinalizationFinalized,
			FinalizedAt:       &at,
			UpdatedAt:         at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to finalize checkout %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
