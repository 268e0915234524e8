package ws

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ekaya/yolda/models"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	// Bu süre aşılırsa bağlantı kapatılır (ağ sorunu olabilir).
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) client disconnect edilir.
	sendBufferSize = 256
)

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: Client'dan gelen frame'leri okur ve işler
// - WritePump: Hub'dan gelen frame'leri client'a yazar
//
// gorilla/websocket aynı anda sadece bir okuma ve bir yazma destekler —
// iki ayrı goroutine ile okuma ve yazma birbirini bloklamaz.
//
// Kimlik bağlantı kurulurken BİR KEZ belirlenir (handshake token kontrolü)
// ve bağlantı ömrü boyunca değişmez. Anonim bağlantılarda userID boştur.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	email  string
	role   models.Role
	// send, client'a gönderilecek frame'lerin buffer'landığı channel.
	// Hub `client.send <- data` yazar, WritePump okur.
	send chan []byte
	mu   sync.Mutex // conn.WriteMessage çağrılarını korur
}

// IsAnonymous, bağlantının token'sız (veya geçersiz token'la) kurulup
// kurulmadığını döner.
func (c *Client) IsAnonymous() bool {
	return c.userID == ""
}

// ReadPump, WebSocket bağlantısından gelen frame'leri okur ve işler.
//
// Bağlantı kapanana kadar bloklar. Kapandığında client Hub'dan çıkarılır
// ve tüm abonelikleri düşer.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// SetReadDeadline: Bu süre içinde frame gelmezse Read hata verir.
	// Her heartbeat geldiğinde deadline yenilenir.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(rawMessage, &frame); err != nil {
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			continue
		}

		c.handleFrame(frame)
	}
}

// handleFrame, client'dan gelen frame'leri türüne göre işler.
func (c *Client) handleFrame(frame Frame) {
	switch frame.Op {
	case OpHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendFrame(Frame{Op: OpHeartbeatAck})

	case OpSubscribe:
		c.handleSubscribe(frame)

	case OpUnsubscribe:
		if strings.HasPrefix(frame.Destination, TopicPrefix) {
			c.hub.Unsubscribe(c, frame.Destination)
		}

	case OpSend:
		c.handleSend(frame)

	default:
		log.Printf("[ws] unknown op from user %s: %s", c.userID, frame.Op)
	}
}

// handleSubscribe, subscribe frame'ini yetki kontrolünden geçirip Hub'a
// kaydeder. Reddedilen abonelik bağlantıyı KAPATMAZ — client error frame
// alır ve diğer topic'lerde çalışmaya devam eder.
func (c *Client) handleSubscribe(frame Frame) {
	topic := frame.Destination
	if !strings.HasPrefix(topic, TopicPrefix) {
		c.sendFrame(Frame{Op: OpError, Data: ErrorData{
			Destination: topic, Reason: "destination is not a topic",
		}})
		return
	}

	if !c.canSubscribe(topic) {
		log.Printf("[ws] subscribe denied: user=%s topic=%s", c.userID, topic)
		c.sendFrame(Frame{Op: OpError, Data: ErrorData{
			Destination: topic, Reason: "subscription not allowed",
		}})
		return
	}

	c.hub.Subscribe(c, topic)
}

// canSubscribe, topic bazlı abonelik yetkisini kontrol eder.
//
// Kurallar:
//   - Araç konum topic'leri herkese açıktır (anonim harita görünümü).
//   - Ride ve destek chat topic'leri kimlik doğrulanmış kullanıcı ister.
//   - Panik ve admin panel topic'leri yalnızca admin'e açıktır.
//   - Kişisel bildirim topic'ine yalnızca sahibi (veya admin) abone olabilir.
func (c *Client) canSubscribe(topic string) bool {
	switch {
	case topic == TopicVehicles || strings.HasPrefix(topic, "/topic/vehicle/"):
		return true

	case topic == TopicPanic,
		topic == TopicSupportAdminMessages,
		topic == TopicSupportAdminChats:
		return c.role == models.RoleAdmin

	case strings.HasPrefix(topic, "/topic/support/user/"):
		if c.role == models.RoleAdmin {
			return true
		}
		return !c.IsAnonymous() && topic == TopicUserNotification(c.userID)

	case strings.HasPrefix(topic, "/topic/ride/"),
		strings.HasPrefix(topic, "/topic/support/chat/"):
		return !c.IsAnonymous()

	default:
		return false
	}
}

// handleSend, /app hedefine gönderilen uygulama frame'ini işler.
//
// Şu an tek app hedefi destek chat'idir: /app/support/chat/{chatID}.
// DB persist + yayın sorumluluğu main.go'da bağlanan callback'e aittir
// (ws → services import döngüsünü kırmak için callback pattern).
func (c *Client) handleSend(frame Frame) {
	if c.IsAnonymous() {
		c.sendFrame(Frame{Op: OpError, Data: ErrorData{
			Destination: frame.Destination, Reason: "authentication required",
		}})
		return
	}

	chatID, ok := strings.CutPrefix(frame.Destination, "/app/support/chat/")
	if !ok || chatID == "" || strings.Contains(chatID, "/") {
		log.Printf("[ws] unknown app destination from user %s: %s", c.userID, frame.Destination)
		return
	}

	// frame.Data tipi any — JSON'a çevirip tekrar parse etmek en güvenli yol.
	dataBytes, err := json.Marshal(frame.Data)
	if err != nil {
		return
	}
	var data SendMessageData
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return
	}
	if data.Content == "" {
		return
	}

	// go func() ile çağrılır — callback DB'ye yazıp Hub.Publish'e döner,
	// ReadPump'ı bloklamamalıdır.
	if c.hub.onSupportMessage != nil {
		go c.hub.onSupportMessage(c.userID, chatID, data.Content)
	}
}

// sendFrame, client'a tek bir frame gönderir.
func (c *Client) sendFrame(frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[ws] failed to marshal frame for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer dolu — client muhtemelen donmuş, bağlantıyı kapat
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, Hub'dan gelen frame'leri WebSocket bağlantısına yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — Hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
// gorilla/websocket conn'a aynı anda birden fazla yazma yasaktır.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
