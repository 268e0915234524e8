// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Her yerde ayrı ayrı os.Getenv() çağırmak yerine tüm ayarlar tek bir
// Config nesnesinde toplanır ve wire-up sırasında ilgili katmana geçirilir.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Vehicle  VehicleConfig
	Push     PushConfig
	CORS     CORSConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/yolda.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// VehicleConfig, periyodik araç konum yayını ayarları.
type VehicleConfig struct {
	// PublishInterval, /topic/vehicles yayın periyodu.
	// Her tick'te public araç listesi kaynaktan yeniden okunur ve yayınlanır.
	PublishInterval time.Duration
}

// PushConfig, harici bildirim teslimatı (Resend email) ayarları.
// APIKey boşsa harici teslimat devre dışı kalır — bildirimler yalnızca
// DB kaydı + WebSocket yayını olarak işler.
type PushConfig struct {
	APIKey    string
	FromEmail string // Gönderici adresi (ör: noreply@yolda.app)
}

// CORSConfig, izin verilen origin listesi.
// Hem HTTP CORS hem WebSocket upgrade origin kontrolü bu listeyi kullanır.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	publishSeconds, err := strconv.Atoi(getEnv("VEHICLE_PUBLISH_INTERVAL_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid VEHICLE_PUBLISH_INTERVAL_SECONDS: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/yolda.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Vehicle: VehicleConfig{
			PublishInterval: time.Duration(publishSeconds) * time.Second,
		},
		Push: PushConfig{
			APIKey:    getEnv("RESEND_API_KEY", ""),
			FromEmail: getEnv("PUSH_FROM_EMAIL", "noreply@yolda.app"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:4200,http://localhost:3000")),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// splitList, virgülle ayrılmış env değerini dilime çevirir, boşları atar.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
