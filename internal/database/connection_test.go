// internal/database/connection_test.go
package database

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tokosakti/toko-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
	))
	return db
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, SeedInitialData(db))
	require.NoError(t, SeedInitialData(db))

	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)
	assert.EqualValues(t, 1, adminCount)

	var admin models.User
	require.NoError(t, db.First(&admin, "email = ?", "admin@tokosakti.id").Error)
	assert.Equal(t, models.UserStatusActive, admin.Status)

	var categoryCount int64
	db.Model(&models.Category{}).Count(&categoryCount)
	assert.EqualValues(t, 4, categoryCount)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")

	err := WithTransaction(db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.Category{Name: "Elektronik", Slug: "elektronik"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	db.Model(&models.Category{}).Where("slug = ?", "elektronik").Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestWithTransactionCommits(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db, func(tx *gorm.DB) error {
		return tx.Create(&models.Category{Name: "Elektronik", Slug: "elektronik"}).Error
	})
	require.NoError(t, err)

	var count int64
	db.Model(&models.Category{}).Where("slug = ?", "elektronik").Count(&count)
	assert.EqualValues(t, 1, count)
}
