// internal/domain/order/service.go
package order

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Service handles order queries and delivery updates
type Service struct {
	store Store
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService creates a new order service
func NewService(store Store, log logrus.FieldLogger) *Service {
	return &Service{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ListForUser returns the user's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := s.store.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// GetForUser returns an order owned by userID; admins may read any order
func (s *Service) GetForUser(ctx context.Context, userID uint, isAdmin bool, id uint) (*Order, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.VisibleTo(userID, isAdmin) {
		return nil, ErrOrderNotAuthorized.WithDetails(map[string]interface{}{"order_id": id})
	}
	return o, nil
}

// MarkDelivered marks an order delivered. Delivery never reverts, so
// marking a delivered order again changes nothing.
func (s *Service) MarkDelivered(ctx context.Context, id, adminID uint, comment string) (*Order, error) {
	changed, err := s.store.MarkDelivered(ctx, id, s.now(), StatusHistory{
		Status:    DeliveryDelivered,
		Comment:   comment,
		CreatedBy: adminID,
	})
	if err != nil {
		return nil, err
	}

	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.WithFields(logrus.Fields{
			"order_id": id,
			"admin_id": adminID,
		}).Info("order marked delivered")
	}
	return o, nil
}
