package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/ws"
)

func TestVehicleRegister(t *testing.T) {
	vehicleRepo := newFakeVehicleRepo()
	publisher := newFakePublisher()
	svc := NewVehicleService(vehicleRepo, publisher)
	ctx := context.Background()

	vehicle, err := svc.Register(ctx, "driver-1", &models.CreateVehicleRequest{
		Model:        "Fiat Egea",
		LicensePlate: "34 ABC 123",
	})
	require.NoError(t, err)
	// Tip belirtilmezse standard atanır; yeni araç müsait DEĞİLDİR.
	assert.Equal(t, models.VehicleStandard, vehicle.Type)
	assert.False(t, vehicle.IsAvailable)

	// Sürücü başına tek araç.
	_, err = svc.Register(ctx, "driver-1", &models.CreateVehicleRequest{
		Model:        "Mercedes Vito",
		LicensePlate: "34 XYZ 987",
		Type:         "van",
	})
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestVehicleRegisterValidation(t *testing.T) {
	svc := NewVehicleService(newFakeVehicleRepo(), newFakePublisher())

	_, err := svc.Register(context.Background(), "driver-1", &models.CreateVehicleRequest{
		Model: "Egea", LicensePlate: "34 ABC 123", Type: "helicopter",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, err = svc.Register(context.Background(), "driver-1", &models.CreateVehicleRequest{
		LicensePlate: "34 ABC 123",
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestVehicleUpdateLocationPublishesImmediately(t *testing.T) {
	vehicleRepo := newFakeVehicleRepo()
	publisher := newFakePublisher()
	svc := NewVehicleService(vehicleRepo, publisher)
	ctx := context.Background()

	vehicle, err := svc.Register(ctx, "driver-1", &models.CreateVehicleRequest{
		Model: "Egea", LicensePlate: "34 ABC 123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLocation(ctx, "driver-1", &models.UpdateLocationRequest{
		Latitude: 41.01, Longitude: 28.97,
	}))

	// Konum tick'i aracın kendi topic'ine anında düşer — toplu yayın
	// periyodik publisher'ın işidir.
	frames := publisher.published(ws.TopicVehicle(vehicle.ID))
	require.Len(t, frames, 1)
	snapshot := frames[0].Payload.(models.VehicleSnapshot)
	assert.Equal(t, 41.01, snapshot.Latitude)
	assert.Empty(t, publisher.published(ws.TopicVehicles))

	stored, err := svc.GetByDriver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, 41.01, stored.Latitude)
	assert.Equal(t, 28.97, stored.Longitude)
}

func TestVehicleUpdateLocationInvalidCoordinates(t *testing.T) {
	svc := NewVehicleService(newFakeVehicleRepo(), newFakePublisher())

	err := svc.UpdateLocation(context.Background(), "driver-1", &models.UpdateLocationRequest{
		Latitude: 123.0, Longitude: 28.97,
	})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestVehicleUpdateLocationPublishFailureIsSwallowed(t *testing.T) {
	vehicleRepo := newFakeVehicleRepo()
	publisher := newFakePublisher()
	svc := NewVehicleService(vehicleRepo, publisher)
	ctx := context.Background()

	vehicle, err := svc.Register(ctx, "driver-1", &models.CreateVehicleRequest{
		Model: "Egea", LicensePlate: "34 ABC 123",
	})
	require.NoError(t, err)
	publisher.failTopics[ws.TopicVehicle(vehicle.ID)] = true

	// Yayın hatası konum yazımını geri almaz.
	require.NoError(t, svc.UpdateLocation(ctx, "driver-1", &models.UpdateLocationRequest{
		Latitude: 41.01, Longitude: 28.97,
	}))
	stored, err := svc.GetByDriver(ctx, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, 41.01, stored.Latitude)
}

func TestVehicleSetAvailableControlsPublicList(t *testing.T) {
	vehicleRepo := newFakeVehicleRepo()
	svc := NewVehicleService(vehicleRepo, newFakePublisher())
	ctx := context.Background()

	_, err := svc.Register(ctx, "driver-1", &models.CreateVehicleRequest{
		Model: "Egea", LicensePlate: "34 ABC 123",
	})
	require.NoError(t, err)

	snapshots, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	require.NoError(t, svc.SetAvailable(ctx, "driver-1", true))

	snapshots, err = svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.True(t, snapshots[0].IsAvailable)

	require.NoError(t, svc.SetAvailable(ctx, "driver-1", false))
	snapshots, err = svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}
