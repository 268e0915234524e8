// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'ın görevi ince (thin) olmalı:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler ASLA iş mantığı içermez, ASLA doğrudan DB'ye erişmez.
package handlers

import (
	"net/http"

	"github.com/ekaya/yolda/models"
)

// contextKey, context.Value çakışmalarını önleyen özel key tipi.
// String key kullanmak paketler arası collision'a neden olabilir.
type contextKey string

// UserContextKey, auth middleware'ın doğrulanmış kullanıcıyı taşıdığı key.
const UserContextKey contextKey = "user"

// CurrentUser, context'teki doğrulanmış kullanıcıyı döner.
// Authenticate fail-open olduğu için public endpoint'lerde ok=false normaldir.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok
}
