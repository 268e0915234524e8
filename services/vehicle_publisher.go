package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/repository"
	"github.com/ekaya/yolda/ws"
)

// VehiclePublisher, müsait araç konumlarını sabit aralıkla yayınlayan
// arka plan görevi.
//
// Her tick'te kaynak DB'dir — memory'de konum snapshot'ı tutulmaz:
//  1. ListPublic ile müsait araçlar çekilir
//  2. Tam liste /topic/vehicles'a yayınlanır (abone yoksa da, boşsa da)
//  3. Her araç kendi /topic/vehicle/{id} topic'ine ayrıca yayınlanır
//
// Tick atlanmaz, biriktirilmez — yavaş bir DB sorgusu sonraki tick'i
// geciktirir, ikiye katlamaz (time.Ticker semantiği).
type VehiclePublisher struct {
	vehicleRepo repository.VehicleRepository
	publisher   ws.TopicPublisher
	interval    time.Duration

	// ticks: test'lerde manuel tetikleme için enjekte edilebilir kanal.
	// nil ise Start kendi time.Ticker'ını kurar.
	ticks <-chan time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewVehiclePublisher, constructor. interval config'den gelir (default 5s).
func NewVehiclePublisher(
	vehicleRepo repository.VehicleRepository,
	publisher ws.TopicPublisher,
	interval time.Duration,
) *VehiclePublisher {
	return &VehiclePublisher{
		vehicleRepo: vehicleRepo,
		publisher:   publisher,
		interval:    interval,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// NewVehiclePublisherWithTicks, tick kaynağı dışarıdan verilen constructor.
// Test'ler kanala yazarak tick'i deterministik tetikler.
func NewVehiclePublisherWithTicks(
	vehicleRepo repository.VehicleRepository,
	publisher ws.TopicPublisher,
	ticks <-chan time.Time,
) *VehiclePublisher {
	p := NewVehiclePublisher(vehicleRepo, publisher, 0)
	p.ticks = ticks
	return p
}

// Start, yayın goroutine'ini başlatır. main.go'da `publisher.Start()` ile
// çağrılır, Stop ile durdurulur.
func (p *VehiclePublisher) Start() {
	go p.run()
}

// Stop, yayın döngüsünü durdurur ve son tick'in bitmesini bekler.
// Birden fazla çağrı güvenlidir.
func (p *VehiclePublisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *VehiclePublisher) run() {
	defer close(p.done)

	ticks := p.ticks
	if ticks == nil {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	log.Printf("[vehicle-publisher] started (interval: %s)", p.interval)
	for {
		select {
		case <-p.stop:
			log.Println("[vehicle-publisher] stopped")
			return
		case <-ticks:
			p.publishOnce()
		}
	}
}

// publishOnce, tek bir yayın turu. Hatalar loglanır, döngü devam eder —
// geçici bir DB hatası publisher'ı öldürmez.
func (p *VehiclePublisher) publishOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	vehicles, err := p.vehicleRepo.ListPublic(ctx)
	if err != nil {
		log.Printf("[vehicle-publisher] failed to list vehicles: %v", err)
		return
	}

	snapshots := make([]models.VehicleSnapshot, 0, len(vehicles))
	for i := range vehicles {
		snapshots = append(snapshots, vehicles[i].Snapshot())
	}

	if err := p.publisher.Publish(ws.TopicVehicles, snapshots); err != nil {
		log.Printf("[vehicle-publisher] failed to publish vehicle list: %v", err)
	}

	for _, snapshot := range snapshots {
		if err := p.publisher.Publish(ws.TopicVehicle(snapshot.VehicleID), snapshot); err != nil {
			log.Printf("[vehicle-publisher] failed to publish vehicle %s: %v", snapshot.VehicleID, err)
		}
	}
}
