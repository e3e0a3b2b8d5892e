// internal/domain/order/materializer.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
)

// CartClearer empties a user's cart once their purchase is recorded
type CartClearer interface {
	ClearUserCart(ctx context.Context, userID uint) error
}

// Materializer creates orders from paid checkout sessions
type Materializer struct {
	store Store
	carts CartClearer
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewMaterializer creates a new order materializer
func NewMaterializer(store Store, carts CartClearer, log logrus.FieldLogger) *Materializer {
	return &Materializer{
		store: store,
		carts: carts,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Materialize stores the order for s. The caller has checked that s is
// paid and open; the unique checkout id still rejects a second order.
func (m *Materializer) Materialize(ctx context.Context, s *checkout.Session) (uint, error) {
	o := FromSession(s, m.now())
	if err := m.store.Create(ctx, o); err != nil {
		return 0, err
	}
	return o.ID, nil
}

// ReleaseCart clears the buyer's cart. Failure is logged and reported as
// false; the order stands either way.
func (m *Materializer) ReleaseCart(ctx context.Context, s *checkout.Session, orderID uint) bool {
	if err := m.carts.ClearUserCart(ctx, s.UserID); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"checkout_id": s.ID,
			"order_id":    orderID,
			"user_id":     s.UserID,
		}).Warn("order created but cart could not be cleared")
		return false
	}
	return true
}
