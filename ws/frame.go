// Package ws, WebSocket bağlantı yönetimi ve topic bazlı gerçek zamanlı
// yayın dağıtımını sağlar.
//
// Mimari:
// - Hub: Topic → abone index'ini yöneten merkezi yapı (Observer pattern)
// - Client: Her WebSocket bağlantısını temsil eder
// - Frame: Client-server arası iletilen mesaj formatı
//
// Yayın akışı:
// 1. Service katmanı bir domain event üretir (ride durumu değişti vb.)
// 2. Service, Hub'ın Publish metodunu topic adı ile çağırır
// 3. Hub, frame'i o topic'e abone tüm client'lara iletir
// 4. Her client'ın WritePump'ı frame'i WebSocket'e yazar
//
// Geçmiş event'ler saklanmaz — abone olmadan önce yayınlanan hiçbir frame
// sonradan teslim edilmez.
package ws

import "fmt"

// Frame, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op: Frame türü — "subscribe", "message", "heartbeat" vb.
// Destination: Topic (server → client) veya hedef (client → server) yolu.
// Data: Frame'e özgü payload.
// Seq: Her outbound frame'e verilen artan sayı. Client eksik frame tespit
// etmek için seq'i takip eder.
type Frame struct {
	Op          string `json:"op"`
	Destination string `json:"destination,omitempty"`
	Data        any    `json:"d,omitempty"`
	Seq         int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpSubscribe   = "subscribe"   // Bir topic'e abone ol
	OpUnsubscribe = "unsubscribe" // Topic aboneliğini bırak
	OpHeartbeat   = "heartbeat"   // Client her 30sn'de gönderir — "hâlâ bağlıyım" sinyali
	OpSend        = "send"        // /app hedefine uygulama mesajı (destek chat vb.)
)

// Server → Client operasyonları
const (
	OpConnected    = "connected"     // Bağlantı kurulduğunda ilk gönderilen — kimlik bilgisi
	OpHeartbeatAck = "heartbeat_ack" // Heartbeat'e yanıt
	OpMessage      = "message"       // Topic yayını — Destination hangi topic olduğunu söyler
	OpError        = "error"         // Reddedilen subscribe / geçersiz frame bildirimi
)

// Destination prefix'leri. /topic server → client yayın kanallarıdır,
// /app client → server uygulama hedefleridir.
const (
	TopicPrefix = "/topic/"
	AppPrefix   = "/app/"
)

// Sabit topic'ler
const (
	// TopicVehicles, tüm müsait araçların toplu konum yayını.
	TopicVehicles = "/topic/vehicles"

	// TopicPanic, panik butonu alarmlarının admin yayını.
	TopicPanic = "/topic/panic"

	// TopicSupportAdminMessages, tüm destek sohbetlerindeki yeni mesajların
	// admin paneli yayını.
	TopicSupportAdminMessages = "/topic/support/admin/messages"

	// TopicSupportAdminChats, açık destek sohbeti listesi değiştiğinde
	// yayınlanan admin paneli topic'i.
	TopicSupportAdminChats = "/topic/support/admin/chats"
)

// TopicRide, tek bir ride'ın durum yayın topic'i.
func TopicRide(rideID string) string {
	return fmt.Sprintf("/topic/ride/%s", rideID)
}

// TopicVehicle, tek bir aracın konum yayın topic'i.
func TopicVehicle(vehicleID string) string {
	return fmt.Sprintf("/topic/vehicle/%s", vehicleID)
}

// TopicSupportChat, tek bir destek sohbetinin mesaj yayın topic'i.
func TopicSupportChat(chatID string) string {
	return fmt.Sprintf("/topic/support/chat/%s", chatID)
}

// TopicUserNotification, tek bir kullanıcının kişisel bildirim topic'i.
func TopicUserNotification(userID string) string {
	return fmt.Sprintf("/topic/support/user/%s/notification", userID)
}

// ConnectedData, connected frame'inin payload'ı. Anonim bağlantılarda
// UserID boş döner.
type ConnectedData struct {
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// SendMessageData, /app/support/chat/{id} hedefine gönderilen send
// frame'inin payload'ı.
type SendMessageData struct {
	Content string `json:"content"`
}

// ErrorData, error frame'inin payload'ı.
type ErrorData struct {
	Destination string `json:"destination,omitempty"`
	Reason      string `json:"reason"`
}
