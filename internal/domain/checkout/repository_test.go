package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pcstore-backend/internal/domain/lineitem"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Session{}))
	return db
}

func newSession() *Session {
	return &Session{
		UserID: 1,
		Lines: []lineitem.Line{
			{Ref: lineitem.CatalogRef(1), Name: "Keyboard", UnitPrice: decimal.RequireFromString("49.99"), Quantity: 2, Color: "black"},
			{Ref: lineitem.BuildRef(3), Name: "Budget build", ImageURL: "b.jpg", UnitPrice: decimal.NewFromInt(65000), Quantity: 1},
		},
		ShippingAddress:   testAddress,
		PaymentMethod:     "card",
		TotalPrice:        decimal.RequireFromString("65099.98"),
		PaymentState:      PaymentPending,
		FinalizationState: FinalizationOpen,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	s := newSession()
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, s.Lines[0].Key(), got.Lines[0].Key())
	assert.Equal(t, "49.99", got.Lines[0].UnitPrice.String())
	assert.True(t, got.Lines[1].IsBuildLine())
	assert.Equal(t, testAddress, got.ShippingAddress)
	assert.True(t, s.TotalPrice.Equal(got.TotalPrice))
	assert.Equal(t, PaymentPending, got.PaymentState)

	_, err = repo.Get(ctx, s.ID+1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRepository_SnapshotIsInsertOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	s := newSession()
	require.NoError(t, repo.Create(ctx, s))

	s.Lines[0].Quantity = 50
	s.TotalPrice = decimal.NewFromInt(1)
	s.ShippingAddress.City = "Elsewhere"
	s.UserID = 2
	require.NoError(t, db.Save(s).Error)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("65099.98").Equal(got.TotalPrice))
	assert.Equal(t, "Pune", got.ShippingAddress.City)
	assert.Equal(t, uint(1), got.UserID)
}

func TestRepository_StateTransitions(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	s := newSession()
	require.NoError(t, repo.Create(ctx, s))

	ok, err := repo.MarkFinalized(ctx, s.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "unpaid session must not finalize")

	ok, err = repo.MarkPaid(ctx, s.ID, now, map[string]interface{}{"amount": "65099.98"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkFinalized(ctx, s.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkFinalized(ctx, s.ID, now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.MarkPaid(ctx, s.ID, now, nil)
	require.NoError(t, err)
	assert.False(t, ok, "finalized session must not take payment")

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid())
	assert.True(t, got.IsFinalized())
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, "65099.98", got.PaymentDetails["amount"])
}
