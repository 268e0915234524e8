// Package cache — Generic in-memory TTL cache.
//
// TTLCache, belirli bir süre sonra süresi dolan kayıtları tutan thread-safe,
// generic bir cache'tir. HTTP auth gate'in her request'te email → user
// lookup'ını DB'ye gitmeden çözmesi için kullanılır: token zaten stateless
// doğrulanır, kullanıcının rol/blok durumu kısa TTL ile cache'lenir.
//
// Stale entry'ler Get sırasında döndürülmez; map'ten fiziksel silme arka
// plandaki periyodik cleanup goroutine'inde yapılır (bellek sızıntısı engeli).
package cache

import (
	"sync"
	"time"
)

// entry, cache'teki tek bir kayıttır.
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, generic in-memory TTL cache.
// sync.RWMutex ile korunur — birden fazla goroutine aynı anda okuyabilir,
// yazma sırasında tüm erişim bloklanır.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration

	// stopCleanup: Close() çağrıldığında cleanup goroutine'ini durdurur.
	stopCleanup chan struct{}
}

// New, yeni bir TTLCache oluşturur ve periyodik temizleme goroutine'ini başlatır.
//
// ttl: her entry'nin yaşam süresi (ör: 30*time.Second)
// cleanupInterval: süresi dolan entry'lerin fiziksel silinme periyodu.
// cleanupInterval < ttl olması gerekmez ama map'in gereksiz büyümemesi için
// makul tutulmalıdır.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries:     make(map[K]entry[V]),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCleanup:
				return
			}
		}
	}()

	return c
}

// Get, cache'ten bir değer okur.
// (value, true) eğer key varsa ve süresi dolmamışsa; (zero, false) aksi halde.
// Süresi dolan entry burada silinmez — Get'i RLock ile hızlı tutmak için.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, cache'e bir değer yazar (TTL ile).
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Delete, belirli bir key'i cache'ten siler.
// Kullanım: admin bir kullanıcıyı blokladığında o kullanıcının auth cache
// entry'si hemen invalidate edilir — TTL beklemeden.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// evictExpired, süresi dolmuş tüm entry'leri map'ten siler.
func (c *TTLCache[K, V]) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Close, periyodik temizleme goroutine'ini durdurur.
func (c *TTLCache[K, V]) Close() {
	close(c.stopCleanup)
}
