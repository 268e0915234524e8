// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern:
// Handler (HTTP) ile Repository (DB) arasında oturan katmandır.
// Tüm iş kuralları burada yaşar:
//   - Şifre hash'leme, JWT token üretimi
//   - Ride durum makinesi geçişleri
//   - Bildirim fan-out ve topic yayınları
//
// Service ASLA http.Request/Response bilmez — sadece domain modelleri alır/verir.
// Service ASLA doğrudan SQL çalıştırmaz — Repository interface'i kullanır.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/repository"
)

// AuthService interface'i — dışarıya açık API.
// Handler bu interface'e bağımlıdır, concrete struct'a değil.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)
	// Logout, refresh token'ı iptal eder. Yayınlanmış access token'lar
	// süreleri dolana kadar geçerli kalır — sunucu tarafında access token
	// kara listesi tutulmaz.
	Logout(ctx context.Context, refreshToken string) error
	// ValidateAccessToken, JWT imza ve süre kontrolü yapar.
	// Hata taksonomisi: pkg.ErrTokenExpired / pkg.ErrTokenMalformed.
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	// ExtractEmail, token'ı DOĞRULAMADAN subject'i okur. Log ve teşhis
	// için kullanılır — yetki kararı asla buna dayanmaz. Parse edilemeyen
	// token için boş string döner, hata üretmez.
	ExtractEmail(tokenString string) string
}

// AuthTokens, login/register sonrası dönen token çifti.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
}

// authService, AuthService interface'inin implementasyonu.
type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
}

// NewAuthService, constructor.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
	}
}

// Register, yeni kullanıcı kaydı oluşturur.
//
// Kayıt her zaman passenger rolüyle açılır — admin ve driver hesapları
// mevcut bir admin tarafından oluşturulur.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest) (*AuthTokens, error) {
	// 1. Validation
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	// 2. Bcrypt hash (cost=12)
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. User oluştur
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Name:         req.Name,
		Surname:      req.Surname,
		Phone:        req.Phone,
		Role:         models.RolePassenger,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	// 4. Token çifti oluştur
	return s.generateTokens(ctx, user)
}

// Login, kullanıcı girişi yapar.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Timing bilgisi sızdırmamak için kullanıcı yok/şifre yanlış
			// ayrımı yapılmaz.
			return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", pkg.ErrUnauthorized)
	}

	if user.IsBlocked || !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", pkg.ErrForbidden)
	}

	return s.generateTokens(ctx, user)
}

// RefreshToken, süresi dolmuş access token'ı yenilemek için kullanılır.
// Eski session silinir, yeni token çifti üretilir (rotation).
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		if delErr := s.sessionRepo.Delete(ctx, session.ID); delErr != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", delErr)
		}
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user.IsBlocked || !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", pkg.ErrForbidden)
	}

	return s.generateTokens(ctx, user)
}

// Logout, refresh token'ın session'ını siler. Bilinmeyen token no-op'tur —
// logout idempotent'tir.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessionRepo.Delete(ctx, session.ID)
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
//
// Hata taksonomisi auth gate'lerin davranışını belirler:
//   - pkg.ErrTokenExpired: imza geçerli ama süre dolmuş — client refresh denemeli
//   - pkg.ErrTokenMalformed: imza/format bozuk — client yeniden login olmalı
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: access token expired", pkg.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %s", pkg.ErrTokenMalformed, err.Error())
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrTokenMalformed)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", pkg.ErrTokenMalformed)
	}

	return claims, nil
}

// ExtractEmail, imza kontrolü yapmadan token'ın subject claim'ini okur.
// Süresi geçmiş token'ın sahibini loglamak gibi best-effort işler içindir.
func (s *authService) ExtractEmail(tokenString string) string {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return ""
	}
	return claims.Subject
}

// ─── Private Helpers ───

func (s *authService) generateTokens(ctx context.Context, user *models.User) (*AuthTokens, error) {
	now := time.Now()
	accessClaims := &models.TokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "yolda",
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	// Refresh token DB'de plaintext saklanmaz — SHA-256 hash'i saklanır.
	// DB sızıntısı olursa oturumlar çalınamaz.
	session := &models.Session{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(refreshString),
		ExpiresAt: now.Add(s.refreshExp),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user.PasswordHash = ""

	return &AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		User:         *user,
	}, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
