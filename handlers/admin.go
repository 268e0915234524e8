package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/services"
)

// AdminHandler, admin moderasyon endpoint'lerini yöneten struct.
// Tüm endpoint'ler route katmanında RequireRole(admin) ile sarılır.
type AdminHandler struct {
	userService services.UserService

	// onUserModerated: blok durumu değişen kullanıcının auth cache
	// entry'sini düşürmek için main.go'da middleware'a bağlanır.
	onUserModerated func(email string)
}

// NewAdminHandler, constructor.
func NewAdminHandler(userService services.UserService, onUserModerated func(email string)) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		onUserModerated: onUserModerated,
	}
}

// ListUsers godoc
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, users)
}

// CreateUser godoc
// POST /api/admin/users
// Body: CreateUserRequest + { "role": "driver" | "admin" | "passenger" }
// Register yolu her zaman passenger üretir — driver/admin hesapları buradan açılır.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.CreateUserRequest
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid role")
		return
	}

	user, err := h.userService.CreateWithRole(r.Context(), &req.CreateUserRequest, role)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, user)
}

// SetUserBlocked godoc
// PUT /api/admin/users/{userId}/block
// Body: { "is_blocked": true }
// Bloklu kullanıcı login olamaz; mevcut access token'ı auth gate'in user
// lookup'ında reddedilir (cache invalidation ile TTL beklenmez).
func (h *AdminHandler) SetUserBlocked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsBlocked bool `json:"is_blocked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID := r.PathValue("userId")
	target, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if err := h.userService.SetBlocked(r.Context(), userID, req.IsBlocked); err != nil {
		pkg.Error(w, err)
		return
	}

	if h.onUserModerated != nil {
		h.onUserModerated(target.Email)
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}
