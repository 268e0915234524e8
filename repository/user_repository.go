// Package repository, veritabanı erişim katmanını tanımlar.
//
// Service katmanı doğrudan SQL yazmaz — repository interface'i üzerinden
// çalışır. Interface sayesinde:
// 1. Test: in-memory fake repository ile DB olmadan test edilir
// 2. Esneklik: SQLite'tan başka bir store'a geçiş yalnızca yeni implementasyon
// 3. Dependency Inversion: service concrete struct'a değil interface'e bağımlı
package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail, auth sınırının identity çözümlemesi — token subject'i
	// email olduğu için hem HTTP gate hem WS interceptor bunu kullanır.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)
	// GetByRole, fan-out alıcı kümesi sorgusu (ör: panic → tüm adminler).
	GetByRole(ctx context.Context, role models.Role) ([]models.User, error)
	// SetBlocked, admin moderasyonu — bloklu kullanıcı login olamaz ve
	// auth gate identity çözümlemesinde reddedilir.
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	Delete(ctx context.Context, id string) error
}
