package services

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/ws"
)

// RideService interface'i — ride yaşam döngüsü ve panik butonu.
//
// Durum makinesi: PENDING → ACCEPTED → ACTIVE → FINISHED,
// CANCELED yalnızca PENDING/ACCEPTED'dan. Her başarılı geçiş:
//  1. DB'ye yazılır (beklenen durum kontrolü ile, yarışlar tek kazananlı)
//  2. /topic/ride/{id} topic'ine RideStatusEvent yayınlanır
//  3. Sürücü + tüm yolculara kalıcı bildirim fan-out edilir
type RideService interface {
	Create(ctx context.Context, passengerID string, req *models.CreateRideRequest) (*models.Ride, error)
	GetByID(ctx context.Context, rideID string) (*models.Ride, error)
	// ListPending, sürücü ekranının bekleyen çağrı listesi.
	ListPending(ctx context.Context) ([]models.Ride, error)
	// Accept, sürücünün bekleyen ride'ı üstlenmesi. Aynı ride'ı iki sürücü
	// kabul etmeye çalışırsa yalnızca ilki başarılı olur.
	Accept(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	Start(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	Finish(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	// Cancel, ride katılımcısının (yolcu veya atanmış sürücü) iptali.
	Cancel(ctx context.Context, rideID, userID string) (*models.Ride, error)
	// Panic, ride içi panik butonu. Durum makinesini DEĞİŞTİRMEZ —
	// /topic/panic yayını + tüm admin'lere bildirim üretir.
	Panic(ctx context.Context, rideID, reporterID string, lat, lng float64) error
}

type rideService struct {
	rideRepo      repository.RideRepository
	userRepo      repository.UserRepository
	publisher     ws.TopicPublisher
	notifications NotificationService
}

// NewRideService, constructor.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	publisher ws.TopicPublisher,
	notifications NotificationService,
) RideService {
	return &rideService{
		rideRepo:      rideRepo,
		userRepo:      userRepo,
		publisher:     publisher,
		notifications: notifications,
	}
}

func (s *rideService) Create(ctx context.Context, passengerID string, req *models.CreateRideRequest) (*models.Ride, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	passengers := append([]string{passengerID}, req.ExtraPassengerIDs...)
	ride := &models.Ride{
		StartAddress: req.StartAddress,
		EndAddress:   req.EndAddress,
		StartLat:     req.StartLat,
		StartLng:     req.StartLng,
		EndLat:       req.EndLat,
		EndLng:       req.EndLng,
		PassengerIDs: passengers,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	// Yeni ride'ın kendi topic'ine pending durumu yayınlanır — yolcu
	// client'ı subscribe olur olmaz güncel durumu yakalamak için ayrıca
	// GET /api/rides/{id} çağırır (geçmiş yayın saklanmaz).
	s.broadcastStatus(ctx, ride)
	return ride, nil
}

func (s *rideService) GetByID(ctx context.Context, rideID string) (*models.Ride, error) {
	return s.rideRepo.GetByID(ctx, rideID)
}

func (s *rideService) ListPending(ctx context.Context) ([]models.Ride, error) {
	return s.rideRepo.ListByStatus(ctx, models.RidePending)
}

func (s *rideService) Accept(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	return s.transition(ctx, rideID, models.RideAccepted, driverID, func(ride *models.Ride) error {
		return nil // pending ride'ı herhangi bir sürücü üstlenebilir
	})
}

func (s *rideService) Start(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	return s.transition(ctx, rideID, models.RideActive, "", func(ride *models.Ride) error {
		if ride.DriverID != driverID {
			return fmt.Errorf("%w: ride is assigned to another driver", pkg.ErrForbidden)
		}
		return nil
	})
}

func (s *rideService) Finish(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	return s.transition(ctx, rideID, models.RideFinished, "", func(ride *models.Ride) error {
		if ride.DriverID != driverID {
			return fmt.Errorf("%w: ride is assigned to another driver", pkg.ErrForbidden)
		}
		return nil
	})
}

func (s *rideService) Cancel(ctx context.Context, rideID, userID string) (*models.Ride, error) {
	return s.transition(ctx, rideID, models.RideCanceled, "", func(ride *models.Ride) error {
		if ride.DriverID == userID || slices.Contains(ride.PassengerIDs, userID) {
			return nil
		}
		return fmt.Errorf("%w: not a participant of this ride", pkg.ErrForbidden)
	})
}

func (s *rideService) Panic(ctx context.Context, rideID, reporterID string, lat, lng float64) error {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID != reporterID && !slices.Contains(ride.PassengerIDs, reporterID) {
		return fmt.Errorf("%w: not a participant of this ride", pkg.ErrForbidden)
	}

	alert := models.PanicAlert{
		RideID:     ride.ID,
		ReporterID: reporterID,
		Latitude:   lat,
		Longitude:  lng,
	}

	if err := s.publisher.Publish(ws.TopicPanic, alert); err != nil {
		log.Printf("[ride] failed to publish panic alert for %s: %v", ride.ID, err)
	}

	// Alıcı kümesi yalnızca admin'lerdir — ride katılımcılarına panik
	// bildirimi yazılmaz.
	admins, err := s.userRepo.GetByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to load admins for panic alert: %w", err)
	}
	recipients := make([]string, 0, len(admins))
	for i := range admins {
		recipients = append(recipients, admins[i].ID)
	}

	return s.notifications.Dispatch(ctx, NotificationEvent{
		Type:         models.NotificationPanic,
		Recipients:   recipients,
		Payload:      alert,
		EmailSubject: "Panic alert",
		EmailBody:    fmt.Sprintf("Panic button pressed on ride %s.", ride.ID),
	})
}

// transition, tek bir durum geçişinin ortak akışı: yükle → yetki kontrolü →
// geçerlilik → CAS update → yeniden yükle → yayın + fan-out.
func (s *rideService) transition(
	ctx context.Context,
	rideID string,
	next models.RideStatus,
	driverID string,
	authorize func(*models.Ride) error,
) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ride); err != nil {
		return nil, err
	}
	if !ride.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, models.ErrInvalidTransition(ride.Status, next))
	}

	if err := s.rideRepo.UpdateStatus(ctx, rideID, ride.Status, next, driverID); err != nil {
		return nil, err
	}

	updated, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}

	s.broadcastStatus(ctx, updated)
	return updated, nil
}

// broadcastStatus, ride topic yayını + katılımcılara bildirim fan-out'u.
// Her iki adım da best-effort'tur — DB'deki durum geçişi geri alınmaz.
func (s *rideService) broadcastStatus(ctx context.Context, ride *models.Ride) {
	event := models.RideStatusEvent{
		RideID:   ride.ID,
		Status:   ride.Status,
		DriverID: ride.DriverID,
	}

	if err := s.publisher.Publish(ws.TopicRide(ride.ID), event); err != nil {
		log.Printf("[ride] failed to publish status for %s: %v", ride.ID, err)
	}

	if err := s.notifications.Dispatch(ctx, NotificationEvent{
		Type:         models.NotificationRideStatus,
		Recipients:   ride.Recipients(),
		Payload:      event,
		EmailSubject: fmt.Sprintf("Ride update: %s", ride.Status),
		EmailBody:    fmt.Sprintf("Your ride %s is now %s.", ride.ID, ride.Status),
	}); err != nil {
		log.Printf("[ride] failed to dispatch notifications for %s: %v", ride.ID, err)
	}
}
