package handlers

import (
	"net/http"
	"strconv"

	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/services"
)

// NotificationHandler, bildirim okuma endpoint'lerini yöneten struct.
type NotificationHandler struct {
	notificationService services.NotificationService
}

// NewNotificationHandler, constructor.
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/notifications?limit=50&offset=0
// Kullanıcının kalıcı bildirim listesi (en yeniden eskiye).
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.notificationService.List(r.Context(), user.ID, limit, offset)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, notifications)
}

// UnreadCount godoc
// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkAllRead godoc
// POST /api/notifications/read-all
// Kullanıcının tüm bildirimlerini okundu işaretler. Idempotent.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "all notifications marked read"})
}
