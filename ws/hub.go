package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// TopicPublisher, service katmanının topic'lere yayın yapmak için
// kullandığı interface.
//
// Dependency Inversion: Service'ler Hub'ın concrete struct'ına değil,
// bu interface'e bağımlıdır. Böylece:
// 1. Service test edilirken mock TopicPublisher kullanılabilir
// 2. Hub implementasyonu değişse bile service kodu etkilenmez
type TopicPublisher interface {
	Publish(topic string, payload any) error
}

// Hub, tüm WebSocket bağlantılarını ve topic aboneliklerini yöneten
// merkezi yapıdır (Observer pattern).
//
// Hub.Run() goroutine'i register/unregister channel'larından `select` ile okur:
// - register channel'dan yeni client gelirse → clients set'ine ekle
// - unregister channel'dan client gelirse → tüm aboneliklerle birlikte çıkar
//
// Subscribe/Unsubscribe ve Publish doğrudan mutex ile çalışır — abonelik
// frame işleme yolunda, yayın service katmanında senkron gerçekleşir.
type Hub struct {
	// clients: bağlı tüm client'lar. map[*Client]bool — Go'da set yoktur,
	// bool değeri her zaman true'dur, sadece varlık kontrolü için kullanılır.
	clients map[*Client]bool

	// topics: topic adı → abone client set'i. Bir client birden fazla
	// topic'e, bir topic'e birden fazla client abone olabilir.
	topics map[string]map[*Client]bool

	// mu: clients ve topics map'lerini koruyan read-write mutex.
	// Publish okuma ağırlıklıdır (RLock) — aynı anda birden fazla yayın
	// birbirini bloklamaz.
	mu sync.RWMutex

	// register/unregister: Client giriş/çıkış sinyalleri.
	register   chan *Client
	unregister chan *Client

	// seq: Her outbound message frame'ine verilen artan sayaç.
	// atomic.Int64 — birden fazla goroutine güvenle okuyup yazabilir.
	seq atomic.Int64

	// onSupportMessage: /app/support/chat/{id} send frame'i geldiğinde
	// tetiklenen callback. main.go'da support service'e bağlanır —
	// ws → services import döngüsünü kırmak için callback pattern kullanılır.
	onSupportMessage func(userID, chatID, content string)
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetSupportMessageCallback, app send frame'lerinin yönlendirileceği
// callback'i bağlar. main.go wiring sırasında bir kez çağrılır.
func (h *Hub) SetSupportMessageCallback(fn func(userID, chatID, content string)) {
	h.onSupportMessage = fn
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// addClient, yeni bir client'ı Hub'a ekler. Abonelik içermez —
// client bağlandıktan sonra subscribe frame'leri ile topic seçer.
func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	log.Printf("[ws] client connected: user=%s anonymous=%t (total: %d)",
		client.userID, client.IsAnonymous(), len(h.clients))
}

// removeClient, bir client'ı tüm topic aboneliklerinden ve Hub'dan çıkarır,
// send channel'ını kapatır.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for topic, subscribers := range h.topics {
		if _, subscribed := subscribers[client]; subscribed {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.topics, topic)
			}
		}
	}

	close(client.send)
	log.Printf("[ws] client disconnected: user=%s (remaining: %d)",
		client.userID, len(h.clients))
}

// Subscribe, client'ı bir topic'e abone eder. Aynı topic'e tekrar abone
// olmak no-op'tur.
func (h *Hub) Subscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		// Unregister yarışı — kapanmakta olan client abone edilmez.
		return
	}
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[*Client]bool)
	}
	h.topics[topic][client] = true
}

// Unsubscribe, client'ın topic aboneliğini bırakır.
func (h *Hub) Unsubscribe(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.topics[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish, payload'ı topic'in o anki tüm abonelerine gönderir.
//
// Payload serialize edilemezse hata senkron döner — çağıran service yayını
// başarısız sayar. Abone yoksa yayın sessizce düşer (hata değildir).
// Yavaş client'lar (send buffer dolu) yayını bloklamaz — bağlantıları
// kapatılır.
func (h *Hub) Publish(topic string, payload any) error {
	frame := Frame{
		Op:          OpMessage,
		Destination: topic,
		Data:        payload,
		Seq:         h.seq.Add(1),
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame for %s: %w", topic, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.topics[topic] {
		select {
		case client.send <- data:
		default:
			// Buffer dolu — bu client yavaş, kapat
			log.Printf("[ws] send buffer full for user %s, dropping connection", client.userID)
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
	return nil
}

// SubscriberCount, bir topic'in o anki abone sayısını döner.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.topics = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
