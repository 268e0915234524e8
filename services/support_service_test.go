package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/ws"
)

type supportTestEnv struct {
	supportRepo      *fakeSupportRepo
	userRepo         *fakeUserRepo
	notificationRepo *fakeNotificationRepo
	publisher        *fakePublisher
	svc              SupportService
}

func newSupportTestEnv() *supportTestEnv {
	supportRepo := newFakeSupportRepo()
	userRepo := newFakeUserRepo()
	notificationRepo := newFakeNotificationRepo()
	publisher := newFakePublisher()
	notifications := NewNotificationService(notificationRepo, userRepo, publisher, &fakePushSender{})
	return &supportTestEnv{
		supportRepo:      supportRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		publisher:        publisher,
		svc:              NewSupportService(supportRepo, userRepo, publisher, notifications),
	}
}

func TestOpenChatIdempotent(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})

	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, chat.IsOpen)

	// İkinci çağrı aynı açık chat'i döner.
	again, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, again.ID)

	// Yeni chat açılışı admin panel listesini yayınlar; reuse yayın üretmez.
	assert.Len(t, env.publisher.published(ws.TopicSupportAdminChats), 1)
}

func TestUserMessagePublishesWithoutNotification(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	message, err := env.svc.SendMessage(ctx, u.ID, chat.ID, "uygulama çöküyor")
	require.NoError(t, err)
	assert.Equal(t, u.ID, message.SenderID)

	// Mesaj hem chat topic'ine hem admin panel akışına yayınlanır.
	assert.Len(t, env.publisher.published(ws.TopicSupportChat(chat.ID)), 1)
	assert.Len(t, env.publisher.published(ws.TopicSupportAdminMessages), 1)

	// Kullanıcının kendi mesajı kendisine bildirim yazmaz.
	assert.Empty(t, env.notificationRepo.forRecipient(u.ID))
}

func TestAdminReplyNotifiesChatOwner(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	admin := env.userRepo.add(&models.User{Email: "admin@yolda.app", Role: models.RoleAdmin, IsActive: true})

	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	_, err = env.svc.SendMessage(ctx, admin.ID, chat.ID, "size nasıl yardımcı olabiliriz?")
	require.NoError(t, err)

	rows := env.notificationRepo.forRecipient(u.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationSupportMessage, rows[0].Type)
	assert.Len(t, env.publisher.published(ws.TopicUserNotification(u.ID)), 1)
}

func TestSendMessageByStranger(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	stranger := env.userRepo.add(&models.User{Email: "other@example.com", Role: models.RolePassenger, IsActive: true})

	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	// Chat sahibi olmayan, admin de olmayan gönderen reddedilir —
	// WS yolu handler RequireRole'den geçmediği için kontrol service'tedir.
	_, err = env.svc.SendMessage(ctx, stranger.ID, chat.ID, "merhaba")
	assert.ErrorIs(t, err, pkg.ErrForbidden)
	assert.Empty(t, env.publisher.published(ws.TopicSupportChat(chat.ID)))
}

func TestSendMessageToClosedChat(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.CloseChat(ctx, chat.ID))

	_, err = env.svc.SendMessage(ctx, u.ID, chat.ID, "hâlâ orada mısınız?")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	// Kapanan chat sonrası OpenChat yeni bir chat açar.
	fresh, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, chat.ID, fresh.ID)
}

func TestSendMessageEmptyContent(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	_, err = env.svc.SendMessage(ctx, u.ID, chat.ID, "")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestListMessagesAuthorization(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)
	_, err = env.svc.SendMessage(ctx, u.ID, chat.ID, "ilk mesaj")
	require.NoError(t, err)

	// Sahip okuyabilir.
	messages, err := env.svc.ListMessages(ctx, u.ID, false, chat.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	// Admin bayrağı ile herkesinki okunabilir.
	messages, err = env.svc.ListMessages(ctx, "someone-else", true, chat.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	// Yabancı okuyamaz.
	_, err = env.svc.ListMessages(ctx, "someone-else", false, chat.ID)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestCloseChatPublishesChatList(t *testing.T) {
	env := newSupportTestEnv()
	ctx := context.Background()

	u := env.userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	chat, err := env.svc.OpenChat(ctx, u.ID)
	require.NoError(t, err)

	before := len(env.publisher.published(ws.TopicSupportAdminChats))
	require.NoError(t, env.svc.CloseChat(ctx, chat.ID))
	after := env.publisher.published(ws.TopicSupportAdminChats)
	require.Len(t, after, before+1)

	// Son yayın kapanış sonrası listedir — chat artık içinde yoktur.
	chats := after[len(after)-1].Payload.([]models.SupportChat)
	assert.Empty(t, chats)

	open, err := env.svc.ListOpenChats(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}
