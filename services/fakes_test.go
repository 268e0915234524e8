package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
)

// Test fake'leri — repository ve yayın interface'lerinin in-memory
// implementasyonları. DB olmadan service katmanı test edilir.

// ─── fakePublisher ───

type publishedFrame struct {
	Topic   string
	Payload any
}

// fakePublisher, Publish çağrılarını kaydeden TopicPublisher implementasyonu.
type fakePublisher struct {
	mu     sync.Mutex
	frames []publishedFrame
	// failTopics: bu topic'lere yayın hata döner (hata yolu testleri için).
	failTopics map[string]bool
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failTopics: make(map[string]bool)}
}

func (p *fakePublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTopics[topic] {
		return fmt.Errorf("publish failed for %s", topic)
	}
	p.frames = append(p.frames, publishedFrame{Topic: topic, Payload: payload})
	return nil
}

func (p *fakePublisher) published(topic string) []publishedFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedFrame
	for _, f := range p.frames {
		if f.Topic == topic {
			out = append(out, f)
		}
	}
	return out
}

// ─── fakePushSender ───

type sentEmail struct {
	To      string
	Subject string
}

type fakePushSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	broken bool
}

func (s *fakePushSender) Send(_ context.Context, toEmail, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return fmt.Errorf("smtp unavailable")
	}
	s.sent = append(s.sent, sentEmail{To: toEmail, Subject: subject})
	return nil
}

// ─── fakeUserRepo ───

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // id → user
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) add(user *models.User) *models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("%w: email already registered", pkg.ErrAlreadyExists)
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: user", pkg.ErrNotFound)
}

func (r *fakeUserRepo) GetAll(_ context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *fakeUserRepo) GetByRole(_ context.Context, role models.Role) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.User
	for _, user := range r.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetBlocked(_ context.Context, userID string, blocked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("%w: user", pkg.ErrNotFound)
	}
	user.IsBlocked = blocked
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

// ─── fakeSessionRepo ───

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.Session // id → session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = uuid.NewString()
	session.CreatedAt = time.Now()
	clone := *session
	r.sessions[session.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TokenHash == tokenHash {
			clone := *s
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: session", pkg.ErrNotFound)
}

func (r *fakeSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	now := time.Now()
	for id, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeSessionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ─── fakeVehicleRepo ───

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[string]*models.Vehicle
	listErr  error
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{vehicles: make(map[string]*models.Vehicle)}
}

func (r *fakeVehicleRepo) add(v *models.Vehicle) *models.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	r.vehicles[v.ID] = v
	return v
}

func (r *fakeVehicleRepo) Create(_ context.Context, v *models.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = uuid.NewString()
	v.UpdatedAt = time.Now()
	clone := *v
	r.vehicles[v.ID] = &clone
	return nil
}

func (r *fakeVehicleRepo) GetByID(_ context.Context, id string) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vehicles[id]; ok {
		clone := *v
		return &clone, nil
	}
	return nil, fmt.Errorf("%w: vehicle", pkg.ErrNotFound)
}

func (r *fakeVehicleRepo) GetByDriverID(_ context.Context, driverID string) (*models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.DriverID == driverID {
			clone := *v
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: vehicle", pkg.ErrNotFound)
}

func (r *fakeVehicleRepo) ListPublic(_ context.Context) ([]models.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Vehicle
	for _, v := range r.vehicles {
		if v.IsAvailable {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVehicleRepo) UpdateLocation(_ context.Context, vehicleID string, lat, lng float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("%w: vehicle", pkg.ErrNotFound)
	}
	v.Latitude, v.Longitude = lat, lng
	v.UpdatedAt = time.Now()
	return nil
}

func (r *fakeVehicleRepo) SetAvailable(_ context.Context, vehicleID string, available bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return fmt.Errorf("%w: vehicle", pkg.ErrNotFound)
	}
	v.IsAvailable = available
	return nil
}

func (r *fakeVehicleRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.vehicles, id)
	return nil
}

// ─── fakeRideRepo ───

type fakeRideRepo struct {
	mu    sync.Mutex
	rides map[string]*models.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: make(map[string]*models.Ride)}
}

func (r *fakeRideRepo) add(ride *models.Ride) *models.Ride {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ride.ID == "" {
		ride.ID = uuid.NewString()
	}
	r.rides[ride.ID] = ride
	return ride
}

func (r *fakeRideRepo) Create(_ context.Context, ride *models.Ride) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride.ID = uuid.NewString()
	ride.Status = models.RidePending
	ride.RequestedAt = time.Now()
	clone := *ride
	r.rides[ride.ID] = &clone
	return nil
}

func (r *fakeRideRepo) GetByID(_ context.Context, id string) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ride, ok := r.rides[id]; ok {
		clone := *ride
		return &clone, nil
	}
	return nil, fmt.Errorf("%w: ride", pkg.ErrNotFound)
}

func (r *fakeRideRepo) ListByStatus(_ context.Context, status models.RideStatus) ([]models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ride
	for _, ride := range r.rides {
		if ride.Status == status {
			out = append(out, *ride)
		}
	}
	return out, nil
}

func (r *fakeRideRepo) UpdateStatus(_ context.Context, rideID string, expected, next models.RideStatus, driverID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[rideID]
	if !ok {
		return fmt.Errorf("%w: ride", pkg.ErrNotFound)
	}
	if ride.Status != expected {
		return fmt.Errorf("%w: ride %s is not in %s state", pkg.ErrBadRequest, rideID, expected)
	}
	ride.Status = next
	if driverID != "" {
		ride.DriverID = driverID
	}
	return nil
}

// ─── fakeNotificationRepo ───

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows []models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()
	r.rows = append(r.rows, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string, _, _ int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) UnreadCount(_ context.Context, recipientID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.rows {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].RecipientID == recipientID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) forRecipient(recipientID string) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.rows {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// ─── fakeSupportRepo ───

type fakeSupportRepo struct {
	mu       sync.Mutex
	chats    map[string]*models.SupportChat
	messages []models.SupportMessage
}

func newFakeSupportRepo() *fakeSupportRepo {
	return &fakeSupportRepo{chats: make(map[string]*models.SupportChat)}
}

func (r *fakeSupportRepo) CreateChat(_ context.Context, chat *models.SupportChat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat.ID = uuid.NewString()
	chat.IsOpen = true
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	clone := *chat
	r.chats[chat.ID] = &clone
	return nil
}

func (r *fakeSupportRepo) GetChatByID(_ context.Context, id string) (*models.SupportChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if chat, ok := r.chats[id]; ok {
		clone := *chat
		return &clone, nil
	}
	return nil, fmt.Errorf("%w: support chat", pkg.ErrNotFound)
}

func (r *fakeSupportRepo) GetOpenChatByUser(_ context.Context, userID string) (*models.SupportChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if chat.UserID == userID && chat.IsOpen {
			clone := *chat
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: support chat", pkg.ErrNotFound)
}

func (r *fakeSupportRepo) ListOpenChats(_ context.Context) ([]models.SupportChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SupportChat
	for _, chat := range r.chats {
		if chat.IsOpen {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (r *fakeSupportRepo) CloseChat(_ context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return fmt.Errorf("%w: support chat", pkg.ErrNotFound)
	}
	chat.IsOpen = false
	return nil
}

func (r *fakeSupportRepo) CreateMessage(_ context.Context, m *models.SupportMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	r.messages = append(r.messages, *m)
	if chat, ok := r.chats[m.ChatID]; ok {
		chat.UpdatedAt = m.CreatedAt
	}
	return nil
}

func (r *fakeSupportRepo) ListMessages(_ context.Context, chatID string) ([]models.SupportMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SupportMessage
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}
