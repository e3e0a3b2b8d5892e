package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pcstore-backend/internal/domain/checkout"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
)

func seedOrder(t *testing.T, repo *Repository, userID, checkoutID uint) *Order {
	t.Helper()
	paidAt := time.Now().UTC()
	s := &checkout.Session{
		ID:     checkoutID,
		UserID: userID,
		Lines: []lineitem.Line{
			{Ref: lineitem.CatalogRef(1), Name: "SSD", UnitPrice: decimal.NewFromInt(9000), Quantity: 1},
		},
		ShippingAddress: checkout.Address{Address: "a", City: "b", PostalCode: "c", Country: "d"},
		TotalPrice:      decimal.NewFromInt(9000),
		PaymentState:    checkout.PaymentPaid,
		PaidAt:          &paidAt,
	}
	o := FromSession(s, paidAt)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestService_ListForUser(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	logger, _ := test.NewNullLogger()
	svc := NewService(repo, logger)
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		seedOrder(t, repo, 5, i)
	}
	seedOrder(t, repo, 6, 4)

	res, err := svc.ListForUser(ctx, 5, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Pagination.Total)
	assert.Equal(t, 2, res.Pagination.TotalPages)
	assert.True(t, res.Pagination.HasNext)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, uint(3), res.Orders[0].CheckoutSessionID)

	res, err = svc.ListForUser(ctx, 99, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Orders)
	assert.Empty(t, res.Orders)
	assert.Equal(t, 20, res.Pagination.Limit)
}

func TestService_GetForUser(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	logger, _ := test.NewNullLogger()
	svc := NewService(repo, logger)
	ctx := context.Background()
	o := seedOrder(t, repo, 5, 1)

	got, err := svc.GetForUser(ctx, 5, false, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)

	_, err = svc.GetForUser(ctx, 6, false, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotAuthorized)

	_, err = svc.GetForUser(ctx, 6, true, o.ID)
	assert.NoError(t, err)

	_, err = svc.GetForUser(ctx, 5, false, o.ID+10)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_MarkDelivered(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	logger, hook := test.NewNullLogger()
	svc := NewService(repo, logger)
	ctx := context.Background()
	o := seedOrder(t, repo, 5, 1)

	got, err := svc.MarkDelivered(ctx, o.ID, 1, "left at door")
	require.NoError(t, err)
	assert.True(t, got.IsDelivered())
	require.NotNil(t, got.DeliveredAt)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, "left at door", got.StatusHistory[0].Comment)
	assert.Len(t, hook.AllEntries(), 1)

	again, err := svc.MarkDelivered(ctx, o.ID, 1, "dup")
	require.NoError(t, err)
	assert.True(t, again.IsDelivered())
	assert.Len(t, again.StatusHistory, 1)
	assert.Len(t, hook.AllEntries(), 1)

	_, err = svc.MarkDelivered(ctx, o.ID+10, 1, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD-20260309-00042", GenerateOrderNumber(at, 42))
}
