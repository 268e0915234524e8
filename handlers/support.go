package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/services"
)

// SupportHandler, destek sohbeti endpoint'lerini yöneten struct.
//
// Mesaj gönderme hem bu handler (HTTP POST) hem WS /app frame'i üzerinden
// mümkündür — ikisi de SupportService.SendMessage'a düşer.
type SupportHandler struct {
	supportService services.SupportService
}

// NewSupportHandler, constructor.
func NewSupportHandler(supportService services.SupportService) *SupportHandler {
	return &SupportHandler{supportService: supportService}
}

// OpenChat godoc
// POST /api/support/chats
// Kullanıcının açık sohbetini döner; yoksa yeni açar. Idempotent.
func (h *SupportHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	chat, err := h.supportService.OpenChat(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, chat)
}

// ListMessages godoc
// GET /api/support/chats/{chatId}/messages
// Chat sahibi veya admin.
func (h *SupportHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	messages, err := h.supportService.ListMessages(r.Context(), user.ID,
		user.Role == models.RoleAdmin, r.PathValue("chatId"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messages)
}

// SendMessage godoc
// POST /api/support/chats/{chatId}/messages
// Body: { "content": "..." }
func (h *SupportHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return
	}

	var req models.SendSupportMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.supportService.SendMessage(r.Context(), user.ID, r.PathValue("chatId"), req.Content)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, message)
}

// ListOpenChats godoc
// GET /api/admin/support/chats
// RequireRole(admin) — admin panelinin açık sohbet listesi.
func (h *SupportHandler) ListOpenChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.supportService.ListOpenChats(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, chats)
}

// CloseChat godoc
// POST /api/admin/support/chats/{chatId}/close
// RequireRole(admin).
func (h *SupportHandler) CloseChat(w http.ResponseWriter, r *http.Request) {
	if err := h.supportService.CloseChat(r.Context(), r.PathValue("chatId")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "chat closed"})
}
