package services

import (
	"context"
	"fmt"
	"log"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/ws"
)

// VehicleService interface'i — araç kaydı, konum güncelleme ve harita listesi.
type VehicleService interface {
	Register(ctx context.Context, driverID string, req *models.CreateVehicleRequest) (*models.Vehicle, error)
	GetByDriver(ctx context.Context, driverID string) (*models.Vehicle, error)
	// UpdateLocation, sürücünün konum tick'ini yazar ve aracın kendi
	// topic'ine anında yayınlar. Toplu /topic/vehicles yayını periyodik
	// publisher'a aittir — burada tetiklenmez.
	UpdateLocation(ctx context.Context, driverID string, req *models.UpdateLocationRequest) error
	SetAvailable(ctx context.Context, driverID string, available bool) error
	ListPublic(ctx context.Context) ([]models.VehicleSnapshot, error)
}

type vehicleService struct {
	vehicleRepo repository.VehicleRepository
	publisher   ws.TopicPublisher
}

// NewVehicleService, constructor.
func NewVehicleService(vehicleRepo repository.VehicleRepository, publisher ws.TopicPublisher) VehicleService {
	return &vehicleService{vehicleRepo: vehicleRepo, publisher: publisher}
}

func (s *vehicleService) Register(ctx context.Context, driverID string, req *models.CreateVehicleRequest) (*models.Vehicle, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// Sürücü başına tek araç — mevcutsa reddet.
	if _, err := s.vehicleRepo.GetByDriverID(ctx, driverID); err == nil {
		return nil, fmt.Errorf("%w: driver already has a vehicle", pkg.ErrAlreadyExists)
	}

	vehicleType := models.VehicleType(req.Type)
	if vehicleType == "" {
		vehicleType = models.VehicleStandard
	}

	vehicle := &models.Vehicle{
		DriverID:     driverID,
		Model:        req.Model,
		LicensePlate: req.LicensePlate,
		Type:         vehicleType,
		IsAvailable:  false,
	}
	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *vehicleService) GetByDriver(ctx context.Context, driverID string) (*models.Vehicle, error) {
	return s.vehicleRepo.GetByDriverID(ctx, driverID)
}

func (s *vehicleService) UpdateLocation(ctx context.Context, driverID string, req *models.UpdateLocationRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return err
	}

	if err := s.vehicleRepo.UpdateLocation(ctx, vehicle.ID, req.Latitude, req.Longitude); err != nil {
		return err
	}

	vehicle.Latitude = req.Latitude
	vehicle.Longitude = req.Longitude

	// Aracı takip eden client'lara anında yayın. Yayın hatası konum
	// yazımını geri almaz — bir sonraki periyodik tick zaten yetişir.
	if err := s.publisher.Publish(ws.TopicVehicle(vehicle.ID), vehicle.Snapshot()); err != nil {
		log.Printf("[vehicle] failed to publish location for %s: %v", vehicle.ID, err)
	}
	return nil
}

func (s *vehicleService) SetAvailable(ctx context.Context, driverID string, available bool) error {
	vehicle, err := s.vehicleRepo.GetByDriverID(ctx, driverID)
	if err != nil {
		return err
	}
	return s.vehicleRepo.SetAvailable(ctx, vehicle.ID, available)
}

func (s *vehicleService) ListPublic(ctx context.Context) ([]models.VehicleSnapshot, error) {
	vehicles, err := s.vehicleRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.VehicleSnapshot, 0, len(vehicles))
	for i := range vehicles {
		snapshots = append(snapshots, vehicles[i].Snapshot())
	}
	return snapshots, nil
}
