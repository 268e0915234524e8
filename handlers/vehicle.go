package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/services"
)

// VehicleHandler, araç endpoint'lerini yöneten struct.
type VehicleHandler struct {
	vehicleService services.VehicleService
}

// NewVehicleHandler, constructor.
func NewVehicleHandler(vehicleService services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// List godoc
// GET /api/vehicles
// Public endpoint — anonim harita görünümü müsait araçları listeler.
// WS abonesi olmayan client'lar için HTTP snapshot'ı.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.vehicleService.ListPublic(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, snapshots)
}

// Register godoc
// POST /api/vehicles
// RequireRole(driver) — sürücü kendi aracını kaydeder.
func (h *VehicleHandler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.CreateVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vehicle, err := h.vehicleService.Register(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, vehicle)
}

// Mine godoc
// GET /api/vehicles/me
// RequireRole(driver) — sürücünün kendi aracı.
func (h *VehicleHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	vehicle, err := h.vehicleService.GetByDriver(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, vehicle)
}

// UpdateLocation godoc
// PUT /api/vehicles/me/location
// RequireRole(driver) — konum tick'i. DB'ye yazılır ve aracın kendi
// topic'ine anında yayınlanır; toplu yayın periyodik publisher'ın işidir.
func (h *VehicleHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
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

	if err := h.vehicleService.UpdateLocation(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "location updated"})
}

// SetAvailability godoc
// PUT /api/vehicles/me/availability
// Body: { "is_available": true }
// RequireRole(driver) — araç müsaitlik toggle'ı. Müsait olmayan araç
// haritadan ve periyodik yayından düşer.
func (h *VehicleHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req struct {
		IsAvailable bool `json:"is_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.vehicleService.SetAvailable(r.Context(), user.ID, req.IsAvailable); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "availability updated"})
}
