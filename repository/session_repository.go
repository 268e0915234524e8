package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// SessionRepository, refresh token oturumlarının veritabanı işlemleri.
// Token'ın kendisi değil SHA-256 hash'i saklanır ve sorgulanır.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	// Delete, logout veya token rotation sırasında oturumu düşürür.
	Delete(ctx context.Context, id string) error
	// DeleteExpired, süresi geçmiş oturumları temizler (periyodik bakım).
	DeleteExpired(ctx context.Context) (int64, error)
}
