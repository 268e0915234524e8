package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// SupportRepository, destek sohbeti veritabanı işlemleri için interface.
type SupportRepository interface {
	CreateChat(ctx context.Context, chat *models.SupportChat) error
	GetChatByID(ctx context.Context, id string) (*models.SupportChat, error)
	// GetOpenChatByUser, kullanıcının açık sohbetini döner; yoksa pkg.ErrNotFound.
	GetOpenChatByUser(ctx context.Context, userID string) (*models.SupportChat, error)
	// ListOpenChats, admin paneli için tüm açık sohbetler (son aktiviteye göre).
	ListOpenChats(ctx context.Context) ([]models.SupportChat, error)
	CloseChat(ctx context.Context, chatID string) error

	CreateMessage(ctx context.Context, message *models.SupportMessage) error
	ListMessages(ctx context.Context, chatID string) ([]models.SupportMessage, error)
}
