package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SupportChat, bir kullanıcının destek ekibiyle sohbeti.
// Kullanıcı başına tek açık chat tutulur — yeni mesaj mevcut açık chat'e düşer.
type SupportChat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IsOpen    bool      `json:"is_open"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupportMessage, destek sohbetindeki tek bir mesaj.
type SupportMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SendSupportMessageRequest, HTTP veya WS app frame üzerinden gelen mesaj isteği.
type SendSupportMessageRequest struct {
	Content string `json:"content"`
}

// Validate, mesaj içeriğini kontrol eder.
func (r SendSupportMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(1, 2000)),
	)
}
