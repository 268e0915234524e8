// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware zincir şeklinde çalışır: Authenticate → RequireRole → Handler.
// "next" parametresi zincirdeki bir sonraki handler'dır — middleware kendi
// işini yapar, sonra next'i çağırır (veya reddedip çağırmaz).
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ekaya/yolda/handlers"
	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/pkg/cache"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/services"
)

// AuthMiddleware, JWT token doğrulama middleware'ı.
//
// İki katmanlı tasarım:
//   - Authenticate: FAIL-OPEN. Token yoksa veya geçersizse request'i
//     düşürmez — anonim olarak devam eder. Public endpoint'ler (harita,
//     register, login) ile korunan endpoint'ler aynı zincirden geçer.
//   - RequireRole: FAIL-CLOSED. Context'te doğrulanmış kullanıcı ve uygun
//     rol yoksa 401/403 döner. Korunan endpoint'ler bu katmanı ekler.
type AuthMiddleware struct {
	authService services.AuthService
	userRepo    repository.UserRepository

	// userCache: email → user lookup'ını her request'te DB'ye gitmeden
	// çözmek için kısa TTL'li cache. Blok/rol değişikliği en fazla TTL
	// kadar gecikmeyle etkili olur.
	userCache *cache.TTLCache[string, *models.User]
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(authService services.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		userRepo:    userRepo,
		userCache:   cache.New[string, *models.User](30*time.Second, time.Minute),
	}
}

// InvalidateUser, bir kullanıcının cache entry'sini düşürür.
// Admin blokladığında TTL beklemeden etkili olması için çağrılır.
func (m *AuthMiddleware) InvalidateUser(email string) {
	m.userCache.Delete(email)
}

// Close, cache cleanup goroutine'ini durdurur (graceful shutdown).
func (m *AuthMiddleware) Close() {
	m.userCache.Close()
}

// Authenticate, Authorization header'ındaki token'ı çözer ve kullanıcıyı
// context'e koyar.
//
// Akış:
//  1. Header yoksa → anonim devam (log yok — public trafik normaldir)
//  2. Token geçersiz/süresi geçmişse → uyarı logla, ANONİM devam.
//     Request reddedilmez — korumayı RequireRole yapar.
//  3. Token geçerliyse → email'den kullanıcıyı çöz (cache → DB).
//     Kullanıcı yok/bloklu/pasifse kimlik bağlanmaz, anonim devam.
//  4. PasswordHash temizlenir, kullanıcı context'e eklenir.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			// Doğrulanamayan token'ın sahibi best-effort loglanır —
			// süresi geçen token hangi kullanıcıya aitti görmek için.
			log.Printf("[auth] invalid token (subject=%q), continuing as anonymous: %v",
				m.authService.ExtractEmail(tokenString), err)
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.lookupUser(r.Context(), claims.Email())
		if err != nil {
			log.Printf("[auth] %v, continuing as anonymous", err)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole, context'te doğrulanmış kullanıcı ve izinli rol zorunlu kılar.
// Rol listesi boşsa herhangi bir doğrulanmış kullanıcı yeterlidir.
func (m *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
			if !ok {
				pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			pkg.ErrorWithMessage(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// lookupUser, email'den aktif kullanıcıyı çözer (önce cache, sonra DB).
// Cache'e yalnızca geçerli kullanıcılar yazılır — bloklu kullanıcı her
// request'te DB'den kontrol edilir ki blok kaldırılınca hemen etkili olsun.
func (m *AuthMiddleware) lookupUser(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.userCache.Get(email); ok {
		return user, nil
	}

	user, err := m.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkg.ErrUnknownIdentity
	}
	if user.IsBlocked || !user.IsActive {
		return nil, pkg.ErrUnknownIdentity
	}

	user.PasswordHash = ""
	m.userCache.Set(email, user)
	return user, nil
}
