// internal/services/service_test.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tokosakti/toko-backend/internal/config"
	"github.com/tokosakti/toko-backend/internal/models"
)

// newTestDB opens an in-memory SQLite database migrated with the full
// schema. One connection only: each :memory: connection is its own database.
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

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memorySink records published events in order.
type memorySink struct {
	mu     sync.Mutex
	events []Event
}

func (s *memorySink) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memorySink) kinds() []models.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]models.EventKind, 0, len(s.events))
	for _, e := range s.events {
		kinds = append(kinds, e.Kind())
	}
	return kinds
}

var testProductSeq int

func createTestUser(t *testing.T, db *gorm.DB, userType models.UserType) *models.User {
	t.Helper()

	testProductSeq++
	user := &models.User{
		Username: fmt.Sprintf("user%d", testProductSeq),
		Email:    fmt.Sprintf("user%d@example.com", testProductSeq),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Passw0rdStrong"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, name string, price float64, discount, stock int) *models.Product {
	t.Helper()

	testProductSeq++
	product := &models.Product{
		Name:            name,
		Code:            fmt.Sprintf("BRG-%04d", testProductSeq),
		Stock:           stock,
		Price:           price,
		DiscountPercent: discount,
		IsVisible:       true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func testCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		PaymentDeadlineHours: 24,
		SweepEnabled:         false,
		SweepIntervalMinutes: 10,
	}
}

func newTestOrderService(db *gorm.DB, sink EventSink, clock Clock) *OrderService {
	storage, _ := NewStorageService(&config.Config{
		Upload: config.UploadConfig{MaxProofSizeMB: 2},
	})
	return NewOrderService(db, nil, storage, sink, clock, testCheckoutConfig())
}

// fakeUpload builds an in-memory multipart file for proof upload tests.
type fakeFile struct {
	*bytes.Reader
}

func (fakeFile) Close() error { return nil }

func fakeUpload(name string, content []byte) (multipart.File, *multipart.FileHeader) {
	return fakeFile{bytes.NewReader(content)}, &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(content)),
	}
}
