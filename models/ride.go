package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// RideStatus, ride durum makinesinin kapalı durumu kümesi.
//
// Geçişler:
//
//	PENDING → ACCEPTED → ACTIVE → FINISHED
//	PENDING → CANCELED
//	ACCEPTED → CANCELED
//
// Başka geçiş yoktur — service katmanı CanTransitionTo ile kontrol eder.
type RideStatus string

const (
	RidePending  RideStatus = "pending"
	RideAccepted RideStatus = "accepted"
	RideActive   RideStatus = "active"
	RideFinished RideStatus = "finished"
	RideCanceled RideStatus = "canceled"
)

// CanTransitionTo, mevcut durumdan hedef duruma geçişin geçerliliğini döner.
func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	switch s {
	case RidePending:
		return next == RideAccepted || next == RideCanceled
	case RideAccepted:
		return next == RideActive || next == RideCanceled
	case RideActive:
		return next == RideFinished
	default:
		return false
	}
}

// Ride, bir yolculuk kaydı.
//
// DriverID pending durumda boştur — sürücü accept ettiğinde atanır.
// Passengers ayrı tablodan (ride_passengers) yüklenir.
type Ride struct {
	ID           string     `json:"id"`
	DriverID     string     `json:"driver_id,omitempty"`
	Status       RideStatus `json:"status"`
	StartAddress string     `json:"start_address"`
	EndAddress   string     `json:"end_address"`
	StartLat     float64    `json:"start_lat"`
	StartLng     float64    `json:"start_lng"`
	EndLat       float64    `json:"end_lat"`
	EndLng       float64    `json:"end_lng"`
	PassengerIDs []string   `json:"passenger_ids"`
	RequestedAt  time.Time  `json:"requested_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Recipients, ride event'lerinin bildirim alıcıları: sürücü + tüm yolcular.
// Sürücü henüz atanmamışsa yalnızca yolcular döner.
func (r *Ride) Recipients() []string {
	out := make([]string, 0, len(r.PassengerIDs)+1)
	if r.DriverID != "" {
		out = append(out, r.DriverID)
	}
	out = append(out, r.PassengerIDs...)
	return out
}

// RideStatusEvent, /topic/ride/{id} yayın payload'ı.
type RideStatusEvent struct {
	RideID   string     `json:"rideId"`
	Status   RideStatus `json:"status"`
	DriverID string     `json:"driver_id,omitempty"`
}

// CreateRideRequest, yolcunun ride çağırma isteği.
// ExtraPassengerIDs: paylaşımlı yolculukta isteği yapan dışındaki yolcular.
type CreateRideRequest struct {
	StartAddress      string   `json:"start_address"`
	EndAddress        string   `json:"end_address"`
	StartLat          float64  `json:"start_lat"`
	StartLng          float64  `json:"start_lng"`
	EndLat            float64  `json:"end_lat"`
	EndLng            float64  `json:"end_lng"`
	ExtraPassengerIDs []string `json:"extra_passenger_ids"`
}

// Validate, ride isteği alanlarını kontrol eder.
func (r CreateRideRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StartAddress, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.EndAddress, validation.Required, validation.Length(1, 256)),
		validation.Field(&r.StartLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.StartLng, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.EndLat, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&r.EndLng, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&r.ExtraPassengerIDs, validation.Length(0, 3)),
	)
}

// PanicAlert, panik butonu basıldığında /topic/panic üzerinden yayınlanan
// ve admin bildirimlerine yazılan payload.
type PanicAlert struct {
	RideID     string  `json:"rideId"`
	ReporterID string  `json:"reporter_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// ErrInvalidTransition, geçersiz ride durum geçişi için hata üretir.
// Service katmanı bunu pkg.ErrBadRequest ile sarar.
func ErrInvalidTransition(from, to RideStatus) error {
	return fmt.Errorf("invalid ride transition %s → %s", from, to)
}
