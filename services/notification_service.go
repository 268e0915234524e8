package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg/push"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/ws"
)

// NotificationEvent, fan-out edilecek tek bir domain event'i.
//
// Payload JSON'a serialize edilip hem kalıcı satıra hem topic yayınına
// aynen yazılır. EmailSubject boşsa email adımı atlanır.
type NotificationEvent struct {
	Type       models.NotificationType
	Recipients []string
	Payload    any
	// EmailSubject/EmailBody: best-effort push kanalı içeriği.
	EmailSubject string
	EmailBody    string
}

// NotificationService interface'i — fan-out ve bildirim okuma işlemleri.
type NotificationService interface {
	// Dispatch, event'i alıcı kümesine dağıtır. Her alıcı için sıra:
	//
	//  1. Kalıcı bildirim satırı yaz (kaynak-of-truth)
	//  2. Kişisel topic'e yayınla (/topic/support/user/{id}/notification)
	//  3. Best-effort email gönder
	//
	// Satır yazılamayan alıcı atlanır ve hata toplanır; yayın/email hatası
	// satırı GERİ ALMAZ — yalnızca loglanır. Bağlı olmayan kullanıcı yayını
	// kaçırır ama satırı her zaman görür.
	Dispatch(ctx context.Context, event NotificationEvent) error
	List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAllRead(ctx context.Context, userID string) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	publisher        ws.TopicPublisher
	push             push.Sender
}

// NewNotificationService, constructor.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	publisher ws.TopicPublisher,
	pushSender push.Sender,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		publisher:        publisher,
		push:             pushSender,
	}
}

func (s *notificationService) Dispatch(ctx context.Context, event NotificationEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	var firstErr error
	for _, recipientID := range event.Recipients {
		notification := &models.Notification{
			RecipientID: recipientID,
			Type:        event.Type,
			Payload:     string(payload),
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			log.Printf("[notification] failed to persist for %s: %v", recipientID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := s.publisher.Publish(ws.TopicUserNotification(recipientID), notification); err != nil {
			log.Printf("[notification] failed to publish for %s: %v", recipientID, err)
		}

		s.sendEmail(ctx, recipientID, event)
	}
	return firstErr
}

// sendEmail, best-effort push kanalı. Her hata yutulup loglanır —
// email sağlayıcısının kesintisi bildirim akışını asla düşürmez.
func (s *notificationService) sendEmail(ctx context.Context, recipientID string, event NotificationEvent) {
	if event.EmailSubject == "" {
		return
	}

	user, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		log.Printf("[notification] email lookup failed for %s: %v", recipientID, err)
		return
	}
	if err := s.push.Send(ctx, user.Email, event.EmailSubject, event.EmailBody); err != nil {
		log.Printf("[notification] email send failed for %s: %v", user.Email, err)
	}
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	return s.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
