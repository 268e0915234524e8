package ws

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ekaya/yolda/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı interface.
//
// Neden services.AuthService yerine kendi interface'imizi tanımlıyoruz?
// Circular dependency'yi önlemek için:
// - services paketi ws.TopicPublisher'ı kullanıyor (yayın için)
// - ws paketi services.AuthService'i kullansaydı → ws → services → ws döngüsü oluşurdu
//
// Interface Segregation Principle (ISP): handler'ın AuthService'in tüm
// metodlarına ihtiyacı yok — sadece ValidateAccessToken yeterli. main.go'da
// authService bu interface'i implicit olarak karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// IdentityResolver, token'daki email'i kalıcı kullanıcı ID'sine çevirir.
// Kişisel bildirim topic'i userID ile adreslendiği için handshake'te bir
// kez çözülür. main.go'da user service bu interface'i karşılar.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, email string) (string, error)
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	identities     IdentityResolver
	upgrader       websocket.Upgrader
}

// NewHandler, yeni bir WebSocket handler oluşturur.
//
// allowedOrigins boşsa tüm origin'lere izin verilir (development).
// Doluysa yalnızca listedeki origin'ler upgrade edilir.
func NewHandler(hub *Hub, tokenValidator TokenValidator, identities IdentityResolver, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		identities:     identities,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker, config'deki origin allow-list'ine göre CheckOrigin fonksiyonu üretir.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(origin, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Tarayıcı dışı client'lar (mobil uygulama) Origin göndermez.
			return true
		}
		return allowed[strings.TrimRight(origin, "/")]
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı
// Hub'a kaydeder.
//
// Kimlik kontrolü handshake'te BİR KEZ yapılır, frame başına tekrarlanmaz:
//
//  1. Authorization header'dan Bearer token al
//  2. Token yoksa → anonim bağlantı (harita gibi public görünümler için)
//  3. Token geçersiz/süresi geçmişse → uyarı logla, bağlantıyı anonim kur.
//     Bağlantı KAPATILMAZ — kötü token'lı client public topic'leri yine izler.
//  4. Token geçerliyse → email'den userID çöz, kimliği bağlantıya bağla
//  5. Upgrade, Hub'a kayıt, connected frame'i, pump goroutine'leri
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID, email, role := h.resolveIdentity(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: userID,
		email:  email,
		role:   role,
		send:   make(chan []byte, sendBufferSize),
	}

	h.hub.register <- client

	client.sendFrame(Frame{
		Op: OpConnected,
		Data: ConnectedData{
			UserID:    userID,
			Role:      string(role),
			Anonymous: client.IsAnonymous(),
		},
	})

	// WritePump ayrı goroutine'de, ReadPump mevcut goroutine'de çalışır.
	// ReadPump bağlantı kapanana kadar bloklar — aksi halde HTTP handler
	// hemen döner ve bağlantı ölür.
	go client.WritePump()
	client.ReadPump()
}

// resolveIdentity, handshake isteğinden bağlantı kimliğini çıkarır.
// Her hata yolu anonim kimliğe düşer — bu handler asla 401 dönmez.
func (h *Handler) resolveIdentity(r *http.Request) (userID, email string, role models.Role) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		log.Println("[ws] connection without token, continuing as anonymous")
		return "", "", ""
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		log.Printf("[ws] invalid token on handshake, continuing as anonymous: %v", err)
		return "", "", ""
	}

	id, err := h.identities.ResolveUserID(r.Context(), claims.Email())
	if err != nil {
		// Token imzası geçerli ama kullanıcı artık yok/bloklu —
		// kimlik bağlanmaz, bağlantı anonim devam eder.
		log.Printf("[ws] unknown identity %s on handshake, continuing as anonymous: %v", claims.Email(), err)
		return "", "", ""
	}

	return id, claims.Email(), claims.Role
}
