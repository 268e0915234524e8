package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/ws"
)

func TestDispatchFanOut(t *testing.T) {
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	publisher := newFakePublisher()
	sender := &fakePushSender{}
	svc := NewNotificationService(notificationRepo, userRepo, publisher, sender)

	u1 := userRepo.add(&models.User{Email: "u1@example.com", Role: models.RolePassenger, IsActive: true})
	u2 := userRepo.add(&models.User{Email: "u2@example.com", Role: models.RolePassenger, IsActive: true})

	err := svc.Dispatch(context.Background(), NotificationEvent{
		Type:         models.NotificationRideStatus,
		Recipients:   []string{u1.ID, u2.ID},
		Payload:      models.RideStatusEvent{RideID: "ride-1", Status: models.RideAccepted},
		EmailSubject: "Ride update",
		EmailBody:    "Your ride was accepted.",
	})
	require.NoError(t, err)

	// Her alıcı için: bir kalıcı satır + bir kişisel topic yayını + bir email.
	for _, u := range []*models.User{u1, u2} {
		rows := notificationRepo.forRecipient(u.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, models.NotificationRideStatus, rows[0].Type)
		assert.Contains(t, rows[0].Payload, "ride-1")
		assert.False(t, rows[0].IsRead)

		assert.Len(t, publisher.published(ws.TopicUserNotification(u.ID)), 1)
	}
	assert.Len(t, sender.sent, 2)
}

func TestDispatchSkipsEmailWithoutSubject(t *testing.T) {
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	sender := &fakePushSender{}
	svc := NewNotificationService(notificationRepo, userRepo, newFakePublisher(), sender)

	u := userRepo.add(&models.User{Email: "u@example.com", IsActive: true})

	err := svc.Dispatch(context.Background(), NotificationEvent{
		Type:       models.NotificationSupportMessage,
		Recipients: []string{u.ID},
		Payload:    map[string]string{"chat_id": "chat-1"},
	})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
	assert.Len(t, notificationRepo.forRecipient(u.ID), 1)
}

func TestDispatchEmailFailureIsSwallowed(t *testing.T) {
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	publisher := newFakePublisher()
	sender := &fakePushSender{broken: true}
	svc := NewNotificationService(notificationRepo, userRepo, publisher, sender)

	u := userRepo.add(&models.User{Email: "u@example.com", IsActive: true})

	err := svc.Dispatch(context.Background(), NotificationEvent{
		Type:         models.NotificationRideStatus,
		Recipients:   []string{u.ID},
		Payload:      models.RideStatusEvent{RideID: "ride-1"},
		EmailSubject: "Ride update",
	})
	// Email hatası dispatch'i düşürmez, satır ve yayın yerinde durur.
	require.NoError(t, err)
	assert.Len(t, notificationRepo.forRecipient(u.ID), 1)
	assert.Len(t, publisher.published(ws.TopicUserNotification(u.ID)), 1)
}

func TestDispatchPublishFailureIsSwallowed(t *testing.T) {
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	publisher := newFakePublisher()
	svc := NewNotificationService(notificationRepo, userRepo, publisher, &fakePushSender{})

	u := userRepo.add(&models.User{Email: "u@example.com", IsActive: true})
	publisher.failTopics[ws.TopicUserNotification(u.ID)] = true

	err := svc.Dispatch(context.Background(), NotificationEvent{
		Type:       models.NotificationRideStatus,
		Recipients: []string{u.ID},
		Payload:    models.RideStatusEvent{RideID: "ride-1"},
	})
	// Yayın hatası satırı geri almaz.
	require.NoError(t, err)
	assert.Len(t, notificationRepo.forRecipient(u.ID), 1)
}

// failingNotificationRepo, belirli alıcılar için Create'i düşüren sarmalayıcı.
type failingNotificationRepo struct {
	*fakeNotificationRepo
	failFor map[string]bool
}

func (r *failingNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if r.failFor[n.RecipientID] {
		return fmt.Errorf("disk full")
	}
	return r.fakeNotificationRepo.Create(ctx, n)
}

func TestDispatchPersistFailureSkipsRecipient(t *testing.T) {
	base := newFakeNotificationRepo()
	repo := &failingNotificationRepo{fakeNotificationRepo: base, failFor: map[string]bool{}}
	userRepo := newFakeUserRepo()
	publisher := newFakePublisher()
	svc := NewNotificationService(repo, userRepo, publisher, &fakePushSender{})

	good := userRepo.add(&models.User{Email: "good@example.com", IsActive: true})
	bad := userRepo.add(&models.User{Email: "bad@example.com", IsActive: true})
	repo.failFor[bad.ID] = true

	err := svc.Dispatch(context.Background(), NotificationEvent{
		Type:       models.NotificationRideStatus,
		Recipients: []string{bad.ID, good.ID},
		Payload:    models.RideStatusEvent{RideID: "ride-1"},
	})
	// İlk hata toplanır ama kalan alıcılara fan-out devam eder.
	require.Error(t, err)
	assert.Empty(t, base.forRecipient(bad.ID))
	assert.Len(t, base.forRecipient(good.ID), 1)
	// Satırı yazılamayan alıcıya yayın da yapılmaz.
	assert.Empty(t, publisher.published(ws.TopicUserNotification(bad.ID)))
	assert.Len(t, publisher.published(ws.TopicUserNotification(good.ID)), 1)
}

func TestMarkAllRead(t *testing.T) {
	notificationRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	svc := NewNotificationService(notificationRepo, userRepo, newFakePublisher(), &fakePushSender{})
	ctx := context.Background()

	u := userRepo.add(&models.User{Email: "u@example.com", IsActive: true})

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Dispatch(ctx, NotificationEvent{
			Type:       models.NotificationRideStatus,
			Recipients: []string{u.ID},
			Payload:    models.RideStatusEvent{RideID: "ride-1"},
		}))
	}

	count, err := svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, svc.MarkAllRead(ctx, u.ID))

	count, err = svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Idempotent.
	require.NoError(t, svc.MarkAllRead(ctx, u.ID))
}
