// internal/services/notification_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tokosakti/toko-backend/internal/config"
	"github.com/tokosakti/toko-backend/internal/models"
	"github.com/tokosakti/toko-backend/internal/utils"
)

const eventChannel = "storefront:events"

// NotificationService is the EventSink implementation: every published event
// is persisted to the feed, broadcast on a redis channel, and for payment
// completions also mailed to the customer.
type NotificationService struct {
	db     *gorm.DB
	redis  *redis.Client
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, redisClient *redis.Client, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		redis:  redisClient,
		config: config,
	}
}

var _ EventSink = (*NotificationService)(nil)

// Publish fans one event out. The feed row is the source of truth; the
// redis broadcast and email legs are best-effort.
func (s *NotificationService) Publish(ctx context.Context, event Event) error {
	title, message := describeEvent(event)

	notification := &models.Notification{
		Kind:    event.Kind(),
		UserID:  event.TargetUser(),
		Title:   title,
		Message: message,
		Payload: event.Payload(),
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.broadcast(ctx, event)

	if paid, ok := event.(PaymentCompletedEvent); ok {
		if err := s.sendPaymentCompletedEmail(ctx, paid); err != nil {
			logrus.WithError(err).Warn("Failed to send payment confirmation email")
		}
	}

	return nil
}

func (s *NotificationService) broadcast(ctx context.Context, event Event) {
	if s.redis == nil {
		return
	}

	envelope := map[string]interface{}{
		"kind":    event.Kind(),
		"payload": event.Payload(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	if err := s.redis.Publish(ctx, eventChannel, data).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to broadcast event")
	}
}

func describeEvent(event Event) (title, message string) {
	switch e := event.(type) {
	case OrderPlacedEvent:
		return "Pesanan baru",
			fmt.Sprintf("Order %s placed with %d item(s), amount due %.2f", e.OrderCode, e.ItemCount, e.AmountDue)
	case PaymentCompletedEvent:
		return "Pembayaran diterima",
			fmt.Sprintf("Payment proof received for order %s", e.OrderCode)
	case ItemAddedToCartEvent:
		return "Ditambahkan ke keranjang",
			fmt.Sprintf("%d x %s added to cart", e.Quantity, e.ProductName)
	case ItemLikedEvent:
		return "Produk disukai",
			fmt.Sprintf("%s was liked", e.ProductName)
	case UserRegisteredEvent:
		return "Pengguna baru",
			fmt.Sprintf("User %s registered", e.Username)
	default:
		return string(event.Kind()), ""
	}
}

// ListFeed returns the caller's notifications plus broadcasts, newest first.
// Admins see the whole feed.
func (s *NotificationService) ListFeed(ctx context.Context, userID uuid.UUID, isAdmin bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if !isAdmin {
		query = query.Where("user_id = ? OR user_id IS NULL", userID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query = query.Order("created_at DESC")
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkRead stamps one notification as read for its target user.
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, isAdmin bool, notificationID uuid.UUID) error {
	var notification models.Notification
	if err := s.db.WithContext(ctx).First(&notification, "id = ?", notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if !isAdmin && (notification.UserID == nil || *notification.UserID != userID) {
		return ErrForbidden
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&notification).Update("read_at", now).Error
}

// Email helpers

func (s *NotificationService) sendPaymentCompletedEmail(ctx context.Context, event PaymentCompletedEvent) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", event.UserID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	tmpl := s.getEmailTemplate("payment_completed")
	body, err := s.renderTemplate(tmpl.Body, map[string]interface{}{
		"Username":  user.Username,
		"OrderCode": event.OrderCode,
		"AmountDue": event.AmountDue,
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject+" - "+event.OrderCode, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"payment_completed": {
			Subject: "Pembayaran Diterima",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Terima kasih, {{.Username}}!</h2>
	<p>Bukti pembayaran untuk pesanan {{.OrderCode}} sebesar {{.AmountDue}} sudah kami terima.</p>
	<p>Pesanan Anda akan segera diproses.</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
