package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// VehicleType, araç sınıfı — fiyatlandırma ve filtreleme için.
type VehicleType string

const (
	VehicleStandard VehicleType = "standard"
	VehicleLuxury   VehicleType = "luxury"
	VehicleVan      VehicleType = "van"
)

// Vehicle, bir sürücünün kayıtlı aracı.
//
// IsAvailable true olan araçlar "public" sayılır: anonim harita görünümünde
// listelenir ve periyodik publisher tarafından /topic/vehicles'a yayınlanır.
type Vehicle struct {
	ID           string      `json:"id"`
	DriverID     string      `json:"driver_id"`
	Model        string      `json:"model"`
	LicensePlate string      `json:"license_plate"`
	Type         VehicleType `json:"vehicle_type"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	IsAvailable  bool        `json:"is_available"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// VehicleSnapshot, yayın anında araç durumundan türetilen ephemeral payload.
// Persist edilmez — her yayın döngüsünde kaynaktan yeniden hesaplanır.
type VehicleSnapshot struct {
	VehicleID   string      `json:"vehicle_id"`
	Type        VehicleType `json:"vehicle_type"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	IsAvailable bool        `json:"is_available"`
}

// Snapshot, araçtan yayın payload'ı üretir.
func (v *Vehicle) Snapshot() VehicleSnapshot {
	return VehicleSnapshot{
		VehicleID:   v.ID,
		Type:        v.Type,
		Latitude:    v.Latitude,
		Longitude:   v.Longitude,
		IsAvailable: v.IsAvailable,
	}
}

// CreateVehicleRequest, sürücünün araç kayıt isteği.
type CreateVehicleRequest struct {
	Model        string `json:"model"`
	LicensePlate string `json:"license_plate"`
	Type         string `json:"vehicle_type"`
}

// Validate, araç kayıt alanlarını kontrol eder.
func (r CreateVehicleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Model, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.LicensePlate, validation.Required, validation.Length(2, 16)),
		validation.Field(&r.Type, validation.In("standard", "luxury", "van")),
	)
}

// UpdateLocationRequest, sürücü konum güncellemesi.
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate, koordinat aralıklarını kontrol eder.
func (r UpdateLocationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}
