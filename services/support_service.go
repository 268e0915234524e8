package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/ws"
)

// SupportService interface'i — kullanıcı ↔ destek ekibi sohbeti.
//
// Mesajlar HTTP POST veya WS /app/support/chat/{id} frame'i ile gelir —
// iki yol da SendMessage'a düşer, davranış aynıdır. Her mesaj:
//  1. DB'ye yazılır
//  2. /topic/support/chat/{chatId} topic'ine yayınlanır
//  3. Admin paneli topic'lerine yayınlanır (messages + chats listesi)
//  4. Admin yazdıysa chat sahibine kalıcı bildirim fan-out edilir
type SupportService interface {
	// OpenChat, kullanıcının açık sohbetini döner; yoksa yeni açar.
	OpenChat(ctx context.Context, userID string) (*models.SupportChat, error)
	// SendMessage, sohbete mesaj ekler. Gönderen chat sahibi veya admin
	// olmalıdır.
	SendMessage(ctx context.Context, senderID, chatID, content string) (*models.SupportMessage, error)
	ListMessages(ctx context.Context, requesterID string, isAdmin bool, chatID string) ([]models.SupportMessage, error)
	// ListOpenChats, admin panelinin açık sohbet listesi.
	ListOpenChats(ctx context.Context) ([]models.SupportChat, error)
	CloseChat(ctx context.Context, chatID string) error
}

type supportService struct {
	supportRepo   repository.SupportRepository
	userRepo      repository.UserRepository
	publisher     ws.TopicPublisher
	notifications NotificationService
}

// NewSupportService, constructor.
func NewSupportService(
	supportRepo repository.SupportRepository,
	userRepo repository.UserRepository,
	publisher ws.TopicPublisher,
	notifications NotificationService,
) SupportService {
	return &supportService{
		supportRepo:   supportRepo,
		userRepo:      userRepo,
		publisher:     publisher,
		notifications: notifications,
	}
}

func (s *supportService) OpenChat(ctx context.Context, userID string) (*models.SupportChat, error) {
	chat, err := s.supportRepo.GetOpenChatByUser(ctx, userID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, pkg.ErrNotFound) {
		return nil, err
	}

	chat = &models.SupportChat{UserID: userID}
	if err := s.supportRepo.CreateChat(ctx, chat); err != nil {
		return nil, err
	}

	s.publishChatList(ctx)
	return chat, nil
}

func (s *supportService) SendMessage(ctx context.Context, senderID, chatID, content string) (*models.SupportMessage, error) {
	req := models.SendSupportMessageRequest{Content: content}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	chat, err := s.supportRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsOpen {
		return nil, fmt.Errorf("%w: chat is closed", pkg.ErrBadRequest)
	}

	// Chat sahibi olmayan gönderen admin olmak zorundadır. Hem HTTP hem WS
	// yolu buradan geçtiği için kontrol service'te yapılır.
	fromAdmin := senderID != chat.UserID
	if fromAdmin {
		sender, err := s.userRepo.GetByID(ctx, senderID)
		if err != nil {
			return nil, err
		}
		if sender.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: not your chat", pkg.ErrForbidden)
		}
	}

	message := &models.SupportMessage{
		ChatID:   chat.ID,
		SenderID: senderID,
		Content:  req.Content,
	}
	if err := s.supportRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ws.TopicSupportChat(chat.ID), message); err != nil {
		log.Printf("[support] failed to publish message to chat %s: %v", chat.ID, err)
	}
	if err := s.publisher.Publish(ws.TopicSupportAdminMessages, message); err != nil {
		log.Printf("[support] failed to publish message to admin panel: %v", err)
	}
	s.publishChatList(ctx)

	// Kullanıcının kendi mesajı için kendisine bildirim yazılmaz —
	// yalnızca destek ekibinin yanıtı bildirim üretir.
	if fromAdmin {
		if err := s.notifications.Dispatch(ctx, NotificationEvent{
			Type:         models.NotificationSupportMessage,
			Recipients:   []string{chat.UserID},
			Payload:      message,
			EmailSubject: "New reply from support",
			EmailBody:    "Support has replied to your conversation.",
		}); err != nil {
			log.Printf("[support] failed to dispatch notification for chat %s: %v", chat.ID, err)
		}
	}

	return message, nil
}

func (s *supportService) ListMessages(ctx context.Context, requesterID string, isAdmin bool, chatID string) ([]models.SupportMessage, error) {
	chat, err := s.supportRepo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && chat.UserID != requesterID {
		return nil, fmt.Errorf("%w: not your chat", pkg.ErrForbidden)
	}
	return s.supportRepo.ListMessages(ctx, chatID)
}

func (s *supportService) ListOpenChats(ctx context.Context) ([]models.SupportChat, error) {
	return s.supportRepo.ListOpenChats(ctx)
}

func (s *supportService) CloseChat(ctx context.Context, chatID string) error {
	if err := s.supportRepo.CloseChat(ctx, chatID); err != nil {
		return err
	}
	s.publishChatList(ctx)
	return nil
}

// publishChatList, açık sohbet listesini admin paneli topic'ine yayınlar.
// Liste her değişiklikte tam olarak gönderilir — delta takibi yapılmaz.
func (s *supportService) publishChatList(ctx context.Context) {
	chats, err := s.supportRepo.ListOpenChats(ctx)
	if err != nil {
		log.Printf("[support] failed to load open chats for broadcast: %v", err)
		return
	}
	if err := s.publisher.Publish(ws.TopicSupportAdminChats, chats); err != nil {
		log.Printf("[support] failed to publish chat list: %v", err)
	}
}
