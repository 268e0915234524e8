// Package main, yolda backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar ile)
//  3. Repository'leri oluştur (DB bağlantısı ile)
//  4. WebSocket Hub'ı başlat, callback'leri bağla
//  5. Service'leri oluştur (repository'ler + hub ile)
//  6. Periyodik araç yayıncısını başlat
//  7. Handler'ları ve middleware'ları oluştur
//  8. HTTP router'ı kur, route'ları bağla
//  9. CORS yapılandır, HTTP Server'ı başlat
//  10. Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/ekaya/yolda/config"
	"github.com/ekaya/yolda/database"
	"github.com/ekaya/yolda/handlers"
	"github.com/ekaya/yolda/middleware"
	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg/push"
	"github.com/ekaya/yolda/pkg/ratelimit"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/services"
	"github.com/ekaya/yolda/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] yolda server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	sessionRepo := repository.NewSQLiteSessionRepo(db.Conn)
	vehicleRepo := repository.NewSQLiteVehicleRepo(db.Conn)
	rideRepo := repository.NewSQLiteRideRepo(db.Conn)
	notificationRepo := repository.NewSQLiteNotificationRepo(db.Conn)
	supportRepo := repository.NewSQLiteSupportRepo(db.Conn)

	// ─── 4. WebSocket Hub ───
	//
	// Hub, topic → abone index'ini yöneten merkezi yapıdır.
	// `go hub.Run()` ayrı goroutine'de register/unregister loop'unu başlatır.
	// Hub aynı zamanda TopicPublisher interface'ini implement eder —
	// service'ler hub'a doğrudan bağımlı olmak yerine interface üzerinden erişir.
	hub := ws.NewHub()
	go hub.Run()

	// ─── 5. Service Layer ───
	var pushSender push.Sender
	if cfg.Push.APIKey != "" {
		pushSender = push.NewResendSender(cfg.Push.APIKey, cfg.Push.FromEmail)
	} else {
		pushSender = push.NewNoopSender()
	}

	authService := services.NewAuthService(
		userRepo,
		sessionRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	userService := services.NewUserService(userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub, pushSender)
	vehicleService := services.NewVehicleService(vehicleRepo, hub)
	rideService := services.NewRideService(rideRepo, userRepo, hub, notificationService)
	supportService := services.NewSupportService(supportRepo, userRepo, hub, notificationService)

	// Hub app frame callback'i — client WS üzerinden destek mesajı
	// gönderdiğinde tetiklenir.
	//
	// Neden burada (main.go'da)?
	// Hub ws paketinde yaşıyor, ama mesaj persist + yayın service katmanında.
	// Hub'ın service'lere bağımlı olmasını istemiyoruz (Dependency Inversion).
	// main.go wire-up noktasıdır — tüm katmanları birbirine bağlar.
	hub.SetSupportMessageCallback(func(userID, chatID, content string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := supportService.SendMessage(ctx, userID, chatID, content); err != nil {
			log.Printf("[support] ws message failed user=%s chat=%s: %v", userID, chatID, err)
		}
	})

	// ─── 6. Periyodik Araç Yayıncısı ───
	vehiclePublisher := services.NewVehiclePublisher(vehicleRepo, hub, cfg.Vehicle.PublishInterval)
	vehiclePublisher.Start()

	// ─── 7. Middleware + Handler Layer ───
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	defer authMiddleware.Close()

	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	defer loginLimiter.Stop()

	authHandler := handlers.NewAuthHandler(authService, loginLimiter)
	adminHandler := handlers.NewAdminHandler(userService, authMiddleware.InvalidateUser)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	rideHandler := handlers.NewRideHandler(rideService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	supportHandler := handlers.NewSupportHandler(supportService)
	wsHandler := ws.NewHandler(hub, authService, userService, cfg.CORS.AllowedOrigins)

	// ─── 8. HTTP Router ───
	mux := buildRoutes(routeDeps{
		auth:          authMiddleware,
		authHandler:   authHandler,
		adminHandler:  adminHandler,
		vehicles:      vehicleHandler,
		rides:         rideHandler,
		notifications: notificationHandler,
		support:       supportHandler,
		wsHandler:     wsHandler,
	})

	// ─── 9. CORS + HTTP Server ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ─── 10. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Sıra önemli: önce periyodik yayıncı durur (hub'a yeni yayın gelmez),
	// sonra WebSocket bağlantıları kapanır, en son HTTP server mevcut
	// request'lerin bitmesini bekleyerek kapanır.
	vehiclePublisher.Stop()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}

// routeDeps, buildRoutes'un ihtiyaç duyduğu handler ve middleware kümesi.
type routeDeps struct {
	auth          *middleware.AuthMiddleware
	authHandler   *handlers.AuthHandler
	adminHandler  *handlers.AdminHandler
	vehicles      *handlers.VehicleHandler
	rides         *handlers.RideHandler
	notifications *handlers.NotificationHandler
	support       *handlers.SupportHandler
	wsHandler     *ws.Handler
}

// buildRoutes, tüm endpoint'leri ServeMux'a bağlar.
//
// Zincir yapısı: Authenticate her route'u sarar (fail-open — token çözülür
// ama reddetmez), korunan endpoint'ler üstüne RequireRole ekler (fail-closed).
func buildRoutes(d routeDeps) *http.ServeMux {
	mux := http.NewServeMux()

	authn := d.auth.Authenticate
	anyUser := d.auth.RequireRole()
	adminOnly := d.auth.RequireRole(models.RoleAdmin)
	driverOnly := d.auth.RequireRole(models.RoleDriver)
	passengerOnly := d.auth.RequireRole(models.RolePassenger)

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"yolda"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/register", d.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", d.authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", d.authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", d.authHandler.Logout)

	mux.Handle("GET /api/users/me", authn(anyUser(http.HandlerFunc(d.authHandler.Me))))

	// Vehicles — liste public (anonim harita), geri kalanı driver
	mux.Handle("GET /api/vehicles", authn(http.HandlerFunc(d.vehicles.List)))
	mux.Handle("POST /api/vehicles", authn(driverOnly(http.HandlerFunc(d.vehicles.Register))))
	mux.Handle("GET /api/vehicles/me", authn(driverOnly(http.HandlerFunc(d.vehicles.Mine))))
	mux.Handle("PUT /api/vehicles/me/location", authn(driverOnly(http.HandlerFunc(d.vehicles.UpdateLocation))))
	mux.Handle("PUT /api/vehicles/me/availability", authn(driverOnly(http.HandlerFunc(d.vehicles.SetAvailability))))

	// Rides — yaşam döngüsü
	mux.Handle("POST /api/rides", authn(passengerOnly(http.HandlerFunc(d.rides.Create))))
	mux.Handle("GET /api/rides/pending", authn(driverOnly(http.HandlerFunc(d.rides.ListPending))))
	mux.Handle("GET /api/rides/{rideId}", authn(anyUser(http.HandlerFunc(d.rides.Get))))
	mux.Handle("POST /api/rides/{rideId}/accept", authn(driverOnly(http.HandlerFunc(d.rides.Accept))))
	mux.Handle("POST /api/rides/{rideId}/start", authn(driverOnly(http.HandlerFunc(d.rides.Start))))
	mux.Handle("POST /api/rides/{rideId}/finish", authn(driverOnly(http.HandlerFunc(d.rides.Finish))))
	mux.Handle("POST /api/rides/{rideId}/cancel", authn(anyUser(http.HandlerFunc(d.rides.Cancel))))
	mux.Handle("POST /api/rides/{rideId}/panic", authn(anyUser(http.HandlerFunc(d.rides.Panic))))

	// Notifications
	mux.Handle("GET /api/notifications", authn(anyUser(http.HandlerFunc(d.notifications.List))))
	mux.Handle("GET /api/notifications/unread-count", authn(anyUser(http.HandlerFunc(d.notifications.UnreadCount))))
	mux.Handle("POST /api/notifications/read-all", authn(anyUser(http.HandlerFunc(d.notifications.MarkAllRead))))

	// Support — kullanıcı tarafı
	mux.Handle("POST /api/support/chats", authn(anyUser(http.HandlerFunc(d.support.OpenChat))))
	mux.Handle("GET /api/support/chats/{chatId}/messages", authn(anyUser(http.HandlerFunc(d.support.ListMessages))))
	mux.Handle("POST /api/support/chats/{chatId}/messages", authn(anyUser(http.HandlerFunc(d.support.SendMessage))))

	// Admin — moderasyon + destek paneli
	mux.Handle("GET /api/admin/users", authn(adminOnly(http.HandlerFunc(d.adminHandler.ListUsers))))
	mux.Handle("POST /api/admin/users", authn(adminOnly(http.HandlerFunc(d.adminHandler.CreateUser))))
	mux.Handle("PUT /api/admin/users/{userId}/block", authn(adminOnly(http.HandlerFunc(d.adminHandler.SetUserBlocked))))
	mux.Handle("GET /api/admin/support/chats", authn(adminOnly(http.HandlerFunc(d.support.ListOpenChats))))
	mux.Handle("POST /api/admin/support/chats/{chatId}/close", authn(adminOnly(http.HandlerFunc(d.support.CloseChat))))

	// WebSocket — kimlik handshake'teki Authorization header'ından çözülür.
	// Token yok veya geçersiz → bağlantı ANONİM devam eder, kapatılmaz.
	// Handler kendi içinde token doğrulaması yapar; HTTP auth zinciri sarmaz.
	mux.HandleFunc("GET /ws", d.wsHandler.HandleConnection)

	return mux
}
