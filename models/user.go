// Package models, domain modellerini ve request/response DTO'larını barındırır.
//
// Bu paket hiçbir proje içi pakete bağımlı değildir (leaf dependency) —
// services, repository, handlers, middleware ve ws katmanlarının hepsi
// models'a bağımlı olabilir, circular dependency oluşmaz.
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Role, kapalı kullanıcı rol kümesi.
//
// Roller string karşılaştırmasıyla değil bu enum ile kontrol edilir —
// authorization sınırındaki switch'ler üç değeri de kapsamak zorundadır.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

// ParseRole, string'den Role üretir. Tanımsız değer hata döner.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleDriver, RolePassenger:
		return Role(raw), nil
	default:
		return "", fmt.Errorf("unknown role: %q", raw)
	}
}

// User, bir platform kullanıcısı (admin, sürücü veya yolcu).
//
// PasswordHash JSON'a asla serialize edilmez (json:"-") —
// middleware context'ine konmadan önce ayrıca temizlenir.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	IsBlocked    bool      `json:"is_blocked"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUserRequest, register isteği. Rol belirtilmezse passenger atanır;
// admin ve driver hesapları yalnızca admin endpoint'i üzerinden açılır.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Phone    string `json:"phone"`
}

// Validate, ozzo-validation kurallarını uygular.
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Surname, validation.Length(0, 64)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
	)
}

// LoginRequest, login isteği.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate, login alanlarını kontrol eder.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}
