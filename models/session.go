package models

import "time"

// Session, bir refresh token oturumu.
//
// TokenHash: refresh token'ın SHA-256 hex hash'i — token'ın kendisi DB'de
// saklanmaz, DB sızıntısında oturumlar ele geçirilemez.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
