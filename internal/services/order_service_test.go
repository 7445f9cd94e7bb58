// internal/services/order_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokosakti/toko-backend/internal/models"
)

func TestCheckoutSnapshotsCartAndDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &memorySink{}
	clock := newFixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	user := createTestUser(t, db, models.UserTypeCustomer)
	beras := createTestProduct(t, db, "Beras Premium 5kg", 100000, 10, 5)
	kopi := createTestProduct(t, db, "Kopi Bubuk 200g", 50000, 0, 10)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, beras.ID, 2)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, kopi.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, sink, clock)
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Merdeka No. 17, Bandung",
	})
	require.NoError(t, err)

	// 100000 with 10% off is 90000; two units plus one kopi at 50000.
	assert.Equal(t, models.OrderStatusAwaitingPayment, order.Status)
	assert.Equal(t, 250000.0, order.GrossTotal)
	assert.Equal(t, 230000.0, order.AmountDue)
	assert.Equal(t, 20000.0, order.TotalSavings)
	assert.Equal(t, order.GrossTotal, order.AmountDue+order.TotalSavings)
	assert.True(t, strings.HasPrefix(order.Code, "TRX-20250310-"))
	assert.Equal(t, clock.Now().Add(24*time.Hour), order.PaymentDeadline)
	require.Len(t, order.Items, 2)

	// Snapshot carries the discounted unit price, not a reference.
	assert.Equal(t, "Beras Premium 5kg", order.Items[0].Name)
	assert.Equal(t, 90000.0, order.Items[0].DiscountedUnitPrice)
	assert.Equal(t, 180000.0, order.Items[0].Subtotal)

	var stockAfter models.Product
	require.NoError(t, db.First(&stockAfter, "id = ?", beras.ID).Error)
	assert.Equal(t, 3, stockAfter.Stock)

	var remaining int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	assert.Contains(t, sink.kinds(), models.EventOrderPlaced)
}

func TestCheckoutIsAtomicOnInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := newFixedClock(time.Now())

	user := createTestUser(t, db, models.UserTypeCustomer)
	plenty := createTestProduct(t, db, "Teh Celup", 20000, 0, 100)
	scarce := createTestProduct(t, db, "Minyak Goreng 2L", 38000, 0, 1)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, plenty.ID, 3)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, scarce.ID, 2)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, clock)
	_, err = orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_va",
		ShippingAddress: "Jl. Sudirman No. 2, Jakarta",
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Minyak Goreng 2L", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing moved: no order row, no stock change, cart intact.
	var orderCount int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount)

	var unaffected models.Product
	require.NoError(t, db.First(&unaffected, "id = ?", plenty.ID).Error)
	assert.Equal(t, 100, unaffected.Stock)

	var lines int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&lines).Error)
	assert.Equal(t, int64(2), lines)
}

func TestCheckoutEmptyCart(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.UserTypeCustomer)
	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))

	_, err := orders.Checkout(context.Background(), user.ID, &CheckoutRequest{
		PaymentMethod:   "cod",
		ShippingAddress: "Jl. Pahlawan No. 1, Surabaya",
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutSkipsHiddenProducts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, models.UserTypeCustomer)
	visible := createTestProduct(t, db, "Sabun Mandi", 5000, 0, 10)
	hidden := createTestProduct(t, db, "Produk Lama", 10000, 0, 10)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, visible.ID, 1)
	require.NoError(t, err)
	_, err = carts.Add(ctx, user.ID, hidden.ID, 1)
	require.NoError(t, err)

	// Hidden after it was carted.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", hidden.ID).
		Update("is_visible", false).Error)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Diponegoro No. 8, Semarang",
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, visible.ID, order.Items[0].ProductID)
	assert.Equal(t, 5000.0, order.AmountDue)

	// Hidden product's stock is untouched and its cart line is consumed too.
	var hiddenAfter models.Product
	require.NoError(t, db.First(&hiddenAfter, "id = ?", hidden.ID).Error)
	assert.Equal(t, 10, hiddenAfter.Stock)

	var lines int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, models.UserTypeCustomer)
	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))

	_, err := orders.Checkout(context.Background(), user.ID, &CheckoutRequest{
		PaymentMethod:   "pulsa",
		ShippingAddress: "Jl. Gajah Mada No. 3, Yogyakarta",
	})
	assert.Error(t, err)
}

func TestCancelRestoresStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Gula Pasir 1kg", 15000, 0, 8)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 3)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Ahmad Yani No. 12, Medan",
	})
	require.NoError(t, err)

	var afterCheckout models.Product
	require.NoError(t, db.First(&afterCheckout, "id = ?", product.ID).Error)
	require.Equal(t, 5, afterCheckout.Stock)

	cancelled, err := orders.Cancel(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	var afterCancel models.Product
	require.NoError(t, db.First(&afterCancel, "id = ?", product.ID).Error)
	assert.Equal(t, 8, afterCancel.Stock)

	// A second cancel is rejected, and stock is not double-credited.
	_, err = orders.Cancel(ctx, user.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancelable)

	require.NoError(t, db.First(&afterCancel, "id = ?", product.ID).Error)
	assert.Equal(t, 8, afterCancel.Stock)
}

func TestCancelGuards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, models.UserTypeCustomer)
	stranger := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Susu UHT 1L", 18000, 0, 4)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, owner.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	order, err := orders.Checkout(ctx, owner.ID, &CheckoutRequest{
		PaymentMethod:   "cod",
		ShippingAddress: "Jl. Veteran No. 21, Malang",
	})
	require.NoError(t, err)

	_, err = orders.Cancel(ctx, stranger.ID, order.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// Paid orders can no longer be cancelled by the customer.
	proof, header := fakeUpload("bukti.jpg", []byte("bukti transfer"))
	_, err = orders.UploadPaymentProof(ctx, owner.ID, order.ID, proof, header)
	require.NoError(t, err)

	_, err = orders.Cancel(ctx, owner.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotCancelable)
}

func TestUploadPaymentProof(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &memorySink{}
	clock := newFixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Mie Instan Dus", 110000, 5, 3)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, sink, clock)
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Imam Bonjol No. 4, Denpasar",
	})
	require.NoError(t, err)

	proof, header := fakeUpload("bukti-transfer.png", []byte("png bytes"))
	paid, err := orders.UploadPaymentProof(ctx, user.ID, order.ID, proof, header)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, paid.Status)
	assert.NotEmpty(t, paid.PaymentProofKey)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, clock.Now(), *paid.PaidAt)
	assert.Contains(t, sink.kinds(), models.EventPaymentCompleted)

	// Already paid: a second upload is rejected.
	proof2, header2 := fakeUpload("bukti-ulang.png", []byte("more bytes"))
	_, err = orders.UploadPaymentProof(ctx, user.ID, order.ID, proof2, header2)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestPaymentProofURL(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	sink := &memorySink{}
	clock := newFixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	user := createTestUser(t, db, models.UserTypeCustomer)
	stranger := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Teh Botol Karton", 80000, 0, 4)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, sink, clock)
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_va",
		ShippingAddress: "Jl. Gajah Mada No. 12, Semarang",
	})
	require.NoError(t, err)

	_, err = orders.PaymentProofURL(ctx, user.ID, order.ID, false)
	assert.ErrorIs(t, err, ErrProofNotUploaded)

	proof, header := fakeUpload("bukti.jpg", []byte("jpg bytes"))
	paid, err := orders.UploadPaymentProof(ctx, user.ID, order.ID, proof, header)
	require.NoError(t, err)

	url, err := orders.PaymentProofURL(ctx, user.ID, order.ID, false)
	require.NoError(t, err)
	assert.Contains(t, url, paid.PaymentProofKey)

	_, err = orders.PaymentProofURL(ctx, stranger.ID, order.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	adminURL, err := orders.PaymentProofURL(ctx, stranger.ID, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, url, adminURL)
}

func TestUploadPaymentProofGuards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := newFixedClock(time.Now())

	user := createTestUser(t, db, models.UserTypeCustomer)
	stranger := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Keripik Singkong", 12000, 0, 6)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, clock)
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_va",
		ShippingAddress: "Jl. Hasanuddin No. 9, Makassar",
	})
	require.NoError(t, err)

	proof, header := fakeUpload("bukti.pdf", []byte("pdf"))
	_, err = orders.UploadPaymentProof(ctx, stranger.ID, order.ID, proof, header)
	assert.ErrorIs(t, err, ErrForbidden)

	badType, badHeader := fakeUpload("bukti.exe", []byte("nope"))
	_, err = orders.UploadPaymentProof(ctx, user.ID, order.ID, badType, badHeader)
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	// Past the deadline the order is no longer payable even though the
	// sweep has not run yet.
	clock.Advance(25 * time.Hour)
	proof2, header2 := fakeUpload("bukti.jpg", []byte("jpg"))
	_, err = orders.UploadPaymentProof(ctx, user.ID, order.ID, proof2, header2)
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestAdminTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Deterjen Bubuk", 25000, 0, 5)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Teuku Umar No. 30, Palembang",
	})
	require.NoError(t, err)

	// Cannot process an order that has not been paid.
	_, err = orders.StartProcessing(ctx, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	proof, header := fakeUpload("bukti.jpg", []byte("jpg"))
	_, err = orders.UploadPaymentProof(ctx, user.ID, order.ID, proof, header)
	require.NoError(t, err)

	processing, err := orders.StartProcessing(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, processing.Status)

	// Cannot complete twice or skip states.
	completed, err := orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, completed.Status)

	_, err = orders.Complete(ctx, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExpireOverdueRestocksAndCancels(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := newFixedClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Air Mineral Galon", 22000, 0, 10)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 4)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, clock)
	order, err := orders.Checkout(ctx, user.ID, &CheckoutRequest{
		PaymentMethod:   "transfer_bank",
		ShippingAddress: "Jl. Slamet Riyadi No. 5, Solo",
	})
	require.NoError(t, err)

	// Before the deadline the sweep leaves everything alone.
	expired, err := orders.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	clock.Advance(25 * time.Hour)
	expired, err = orders.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	var swept models.Order
	require.NoError(t, db.First(&swept, "id = ?", order.ID).Error)
	assert.Equal(t, models.OrderStatusCancelled, swept.Status)

	var restocked models.Product
	require.NoError(t, db.First(&restocked, "id = ?", product.ID).Error)
	assert.Equal(t, 10, restocked.Stock)

	// Idempotent: a second sweep finds nothing.
	expired, err = orders.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestGetOrderVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, models.UserTypeCustomer)
	stranger := createTestUser(t, db, models.UserTypeCustomer)
	admin := createTestUser(t, db, models.UserTypeAdmin)
	product := createTestProduct(t, db, "Pasta Gigi", 9000, 0, 3)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, owner.ID, product.ID, 1)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	order, err := orders.Checkout(ctx, owner.ID, &CheckoutRequest{
		PaymentMethod:   "cod",
		ShippingAddress: "Jl. Antasari No. 11, Banjarmasin",
	})
	require.NoError(t, err)

	_, err = orders.GetOrder(ctx, owner.ID, order.ID, false)
	assert.NoError(t, err)

	_, err = orders.GetOrder(ctx, stranger.ID, order.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = orders.GetOrder(ctx, admin.ID, order.ID, true)
	assert.NoError(t, err)

	_, err = orders.GetOrder(ctx, owner.ID, product.ID, false)
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestPreviewCheckoutFlagsOversell(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, models.UserTypeCustomer)
	product := createTestProduct(t, db, "Telur Ayam 1kg", 28000, 0, 2)

	carts := NewCartService(db, nil)
	_, err := carts.Add(ctx, user.ID, product.ID, 5)
	require.NoError(t, err)

	orders := newTestOrderService(db, nil, newFixedClock(time.Now()))
	preview, err := orders.PreviewCheckout(ctx, user.ID)
	require.NoError(t, err)

	require.Len(t, preview.Lines, 1)
	assert.True(t, preview.Lines[0].Oversold)
	assert.False(t, preview.CanCheckout)
	assert.Equal(t, 140000.0, preview.AmountDue)
}
