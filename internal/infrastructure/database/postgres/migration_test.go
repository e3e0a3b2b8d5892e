package postgres

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/pcstore-backend/internal/domain/identity"
	"github.com/your-org/pcstore-backend/internal/domain/pcbuild"
	"gorm.io/gorm"
)

func newMigratedDB(t *testing.T) (*gorm.DB, *Migration, *test.Hook) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	logger, hook := test.NewNullLogger()
	m := NewMigration(db, logger)
	require.NoError(t, m.RunAutoMigrations())
	return db, m, hook
}

func TestMigration_CreateIndexes(t *testing.T) {
	_, m, hook := newMigratedDB(t)

	require.NoError(t, m.CreateIndexes())
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, entry.Level, entry.Message)
	}
	assert.Equal(t, 0, hook.LastEntry().Data["failed"])
}

func TestMigration_SeedIsIdempotent(t *testing.T) {
	db, m, _ := newMigratedDB(t)

	require.NoError(t, m.SeedInitialData())
	require.NoError(t, m.SeedInitialData())

	info, err := m.TableInfo()
	require.NoError(t, err)
	assert.Equal(t, int64(7), info["products"])
	assert.Equal(t, int64(7), info["product_images"])
	assert.Equal(t, int64(1), info["pc_builds"])
	assert.Equal(t, int64(7), info["pc_build_components"])
	assert.Equal(t, int64(0), info["orders"])

	var build pcbuild.Build
	require.NoError(t, db.Where("name = ?", starterBuildName).First(&build).Error)

	loaded, err := pcbuild.NewRepository(db).GetBuild(context.Background(), build.ID)
	require.NoError(t, err)
	assert.True(t, loaded.AccessibleBy(identity.GuestOwner("guest_abc")))
	assert.Len(t, loaded.Components, 7)
}

func TestDB_Health(t *testing.T) {
	db, _, _ := newMigratedDB(t)
	assert.NoError(t, Wrap(db).Health(context.Background()))
}
