package repository

import (
	"context"

	"github.com/ekaya/yolda/models"
)

// VehicleRepository, araç veritabanı işlemleri için interface.
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *models.Vehicle) error
	GetByID(ctx context.Context, id string) (*models.Vehicle, error)
	GetByDriverID(ctx context.Context, driverID string) (*models.Vehicle, error)
	// ListPublic, anonim harita görünümüne uygun (is_available=1) araçları döner.
	// Periyodik publisher her tick'te bu sorguyu çağırır — kaynak her zaman DB'dir,
	// memory'de snapshot tutulmaz.
	ListPublic(ctx context.Context) ([]models.Vehicle, error)
	// UpdateLocation, sürücü konum tick'ini yazar ve updated_at'i yeniler.
	UpdateLocation(ctx context.Context, vehicleID string, lat, lng float64) error
	SetAvailable(ctx context.Context, vehicleID string, available bool) error
	Delete(ctx context.Context, id string) error
}
