package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/services"
)

// RideHandler, ride yaşam döngüsü endpoint'lerini yöneten struct.
type RideHandler struct {
	rideService services.RideService
}

// NewRideHandler, constructor.
func NewRideHandler(rideService services.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// Create godoc
// POST /api/rides
// RequireRole(passenger) — yolcu yeni ride çağırır, pending durumda açılır.
func (h *RideHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateRideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ride, err := h.rideService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, ride)
}

// Get godoc
// GET /api/rides/{rideId}
// Katılımcılar ve admin görebilir. Client WS topic'ine abone olduktan sonra
// güncel durumu buradan çeker — geçmiş yayın saklanmaz.
func (h *RideHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	ride, err := h.rideService.GetByID(r.Context(), r.PathValue("rideId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if user.Role != models.RoleAdmin && !isParticipant(ride, user.ID) {
		pkg.ErrorWithMessage(w, http.StatusForbidden, "not a participant of this ride")
		return
	}
	pkg.JSON(w, http.StatusOK, ride)
}

// ListPending godoc
// GET /api/rides/pending
// RequireRole(driver) — sürücünün bekleyen çağrı listesi.
func (h *RideHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	rides, err := h.rideService.ListPending(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, rides)
}

// Accept godoc
// POST /api/rides/{rideId}/accept
// RequireRole(driver) — pending → accepted. Yarışan sürücülerden yalnızca
// ilki kazanır, diğerleri 400 alır.
func (h *RideHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(rideID, userID string) (*models.Ride, error) {
		return h.rideService.Accept(r.Context(), rideID, userID)
	})
}

// Start godoc
// POST /api/rides/{rideId}/start
// RequireRole(driver) — accepted → active. Yalnızca atanmış sürücü.
func (h *RideHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(rideID, userID string) (*models.Ride, error) {
		return h.rideService.Start(r.Context(), rideID, userID)
	})
}

// Finish godoc
// POST /api/rides/{rideId}/finish
// RequireRole(driver) — active → finished. Yalnızca atanmış sürücü.
func (h *RideHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(rideID, userID string) (*models.Ride, error) {
		return h.rideService.Finish(r.Context(), rideID, userID)
	})
}

// Cancel godoc
// POST /api/rides/{rideId}/cancel
// Katılımcı iptali — pending/accepted durumdan canceled'a.
func (h *RideHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(rideID, userID string) (*models.Ride, error) {
		return h.rideService.Cancel(r.Context(), rideID, userID)
	})
}

// Panic godoc
// POST /api/rides/{rideId}/panic
// Body: { "latitude": ..., "longitude": ... }
// Panik butonu — ride durumunu DEĞİŞTİRMEZ. /topic/panic yayını + tüm
// admin'lere bildirim üretir.
func (h *RideHandler) Panic(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.rideService.Panic(r.Context(), r.PathValue("rideId"), user.ID, req.Latitude, req.Longitude); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "panic alert sent"})
}

// transition, durum geçişi endpoint'lerinin ortak iskeleti.
func (h *RideHandler) transition(w http.ResponseWriter, r *http.Request, fn func(rideID, userID string) (*models.Ride, error)) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	ride, err := fn(r.PathValue("rideId"), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, ride)
}

func isParticipant(ride *models.Ride, userID string) bool {
	if ride.DriverID == userID {
		return true
	}
	for _, id := range ride.PassengerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
