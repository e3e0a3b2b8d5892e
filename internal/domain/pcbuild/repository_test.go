package pcbuild

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepository_GetBuild(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&Build{}, &Component{}))

	b := Build{UserID: 3, Name: "Streamer", IsPublic: true, Components: []Component{
		{ProductID: 5, Category: CategoryCPU, Quantity: 1},
		{ProductID: 6, Category: CategoryRAM, Quantity: 2},
	}}
	require.NoError(t, db.Create(&b).Error)

	repo := NewRepository(db)
	got, err := repo.GetBuild(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Streamer", got.Name)
	assert.True(t, got.IsPublic)
	require.Len(t, got.Components, 2)
	assert.Equal(t, uint(5), got.Components[0].ProductID)
	assert.Equal(t, 2, got.Components[1].Quantity)

	_, err = repo.GetBuild(context.Background(), b.ID+100)
	assert.ErrorIs(t, err, ErrBuildNotFound)
}
