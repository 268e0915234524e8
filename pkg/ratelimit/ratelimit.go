// Package ratelimit — LoginRateLimiter: brute-force saldırılarına karşı
// IP bazlı login rate limiting.
//
// Tasarım:
// - Her IP adresi için sliding window ile istek sayısı takip edilir.
// - Window süresi içinde maxAttempts aşılırsa istek reddedilir.
// - Başarılı login sonrası Reset() ile sayaç sıfırlanır.
// - Background goroutine süresi dolmuş bucket'ları temizler.
//
// In-memory yeterli: tek instance deploy, SQLite'a her denemede yazmak
// gereksiz I/O yaratır. pkg/ratelimit hiçbir proje içi pakete bağımlı
// değildir (leaf dependency).
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket, bir IP adresi için istek sayacı ve window başlangıç zamanı tutar.
type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter, IP bazlı login rate limiting.
//
// Kullanım:
//
//	limiter := NewLoginRateLimiter(5, 2*time.Minute)
//	if !limiter.Allow(ip) { return 429 }
//	// başarılı login'de: limiter.Reset(ip)
type LoginRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
}

// NewLoginRateLimiter, yeni rate limiter oluşturur ve arka plan temizleme
// goroutine'ini başlatır.
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow, verilen IP adresinin login denemesine izin verilip verilmediğini döner.
// Her çağrı sayacı artırır; başarılı login'de caller Reset() çağırmalıdır.
func (rl *LoginRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[ip]
	if !exists {
		rl.buckets[ip] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		// Yeni pencere — eski sayaç sıfırlanır
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset, başarılı login sonrası IP sayacını sıfırlar.
// Temizlenmezse meşru kullanıcı sonraki denemelerde bloke olabilir.
func (rl *LoginRateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds, rate limit aşıldığında kalan bekleme süresini saniye
// cinsinden döner. HTTP Retry-After header değeri olarak kullanılır.
func (rl *LoginRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[ip]
	if !exists {
		return 0
	}

	remaining := rl.window - time.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1 // +1 yuvarlama
}

// Stop, arka plan temizleme goroutine'ini durdurur (graceful shutdown).
func (rl *LoginRateLimiter) Stop() {
	close(rl.stopCleanup)
}

// cleanupLoop, her dakika süresi dolmuş bucket'ları siler.
func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup, window süresi geçmiş tüm bucket'ları map'ten siler.
func (rl *LoginRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, ip)
		}
	}
}

// ClientIP, request'ten client IP adresini çıkarır.
// Reverse proxy arkasında X-Forwarded-For header'ı öncelik alır.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
