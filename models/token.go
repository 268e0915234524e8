package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın payload'ı.
//
// Subject (RegisteredClaims.Subject) kullanıcının email'idir; Role ayrı
// claim olarak taşınır. Server her request'te imza + expiry doğrular —
// DB'ye gitmeden kimliği bilir (stateless). Revocation listesi yoktur:
// logout yalnızca refresh oturumunu düşürür, access token expiry'ye
// kadar geçerli kalır.
//
// Bu struct models paketinde tanımlanır çünkü services, ws ve middleware
// katmanlarının üçü de kullanır — her katman models'a bağımlı olabilir.
type TokenClaims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Email, token sahibinin kimliğini döner (subject claim'i).
func (c *TokenClaims) Email() string {
	return c.Subject
}
