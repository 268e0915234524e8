package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// NotificationRepository, kalıcı bildirim kayıtları için interface.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListByRecipient, en yeni bildirimden eskiye doğru sayfalı liste döner.
	ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkAllRead(ctx context.Context, recipientID string) error
}
