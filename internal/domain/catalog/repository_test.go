package catalog

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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
	require.NoError(t, db.AutoMigrate(&Product{}, &ProductImage{}))
	return db
}

func TestRepository_GetProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	prod := Product{
		SKU:          "CPU-7800X3D",
		Name:         "Ryzen 7 7800X3D",
		Price:        decimal.NewFromInt(100000),
		CountInStock: 4,
		Category:     "cpu",
		Images: []ProductImage{
			{URL: "https://img.example/cpu-side.jpg", SortOrder: 2},
			{URL: "https://img.example/cpu-front.jpg", SortOrder: 1},
		},
	}
	require.NoError(t, db.Create(&prod).Error)

	snap, err := repo.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ryzen 7 7800X3D", snap.Name)
	assert.True(t, decimal.NewFromInt(100000).Equal(snap.Price))
	assert.Equal(t, 4, snap.CountInStock)
	assert.Equal(t, "https://img.example/cpu-front.jpg", snap.FirstImage())
}

func TestRepository_GetProduct_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepository_GetProduct_InactiveIsNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	prod := Product{SKU: "RAM-32", Name: "32GB DDR5", Price: decimal.NewFromInt(20000), Category: "ram"}
	require.NoError(t, db.Create(&prod).Error)
	require.NoError(t, db.Model(&prod).Update("is_active", false).Error)

	_, err := repo.GetProduct(context.Background(), prod.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
