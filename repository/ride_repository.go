package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// RideRepository, ride veritabanı işlemleri için interface.
type RideRepository interface {
	// Create, ride kaydını ve yolcu ilişkilerini tek transaction'da yazar.
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id string) (*models.Ride, error)
	// ListByStatus, duruma göre ride listesi (ör: sürücü ekranı pending listesi).
	ListByStatus(ctx context.Context, status models.RideStatus) ([]models.Ride, error)
	// UpdateStatus, durum geçişini yazar. expected mevcut durumla eşleşmezse
	// pkg.ErrBadRequest döner — iki sürücünün aynı ride'ı kapma yarışında
	// yalnızca biri kazanır (optimistic concurrency).
	UpdateStatus(ctx context.Context, rideID string, expected, next models.RideStatus, driverID string) error
}
