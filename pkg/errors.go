// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Error karşılaştırması string yerine errors.Is ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu sentinel'ları %w ile sarar, handler katmanı
// HTTP status code'larına map'ler.
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)

// Token doğrulama taksonomisi.
//
// Auth sınırı (HTTP gate, WS interceptor) bu hataları yakalar ve isteği
// anonim olarak devam ettirir — business logic'e exception olarak asla
// sızmaz. Logging'de hangi nedenle reddedildiğini ayırt etmek için
// üç ayrı sentinel tutulur.
var (
	// ErrTokenExpired: imza geçerli ama expiry geçmiş.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed: imza veya yapı bozuk.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrUnknownIdentity: token geçerli ama kullanıcı artık çözümlenemiyor
	// (silinmiş veya bloklanmış hesap).
	ErrUnknownIdentity = errors.New("unknown identity")
)
