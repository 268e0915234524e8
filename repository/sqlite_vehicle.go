package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ekaya/yolda/database"
	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
)

// sqliteVehicleRepo, VehicleRepository interface'inin SQLite implementasyonu.
type sqliteVehicleRepo struct {
	db database.TxQuerier
}

// NewSQLiteVehicleRepo, constructor.
func NewSQLiteVehicleRepo(db database.TxQuerier) VehicleRepository {
	return &sqliteVehicleRepo{db: db}
}

const vehicleColumns = `id, driver_id, model, license_plate, vehicle_type, latitude, longitude, is_available, updated_at`

func (r *sqliteVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) error {
	vehicle.ID = uuid.NewString()

	query := `
		INSERT INTO vehicles (id, driver_id, model, license_plate, vehicle_type, latitude, longitude, is_available)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		vehicle.ID,
		vehicle.DriverID,
		vehicle.Model,
		vehicle.LicensePlate,
		vehicle.Type,
		vehicle.Latitude,
		vehicle.Longitude,
		vehicle.IsAvailable,
	).Scan(&vehicle.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: license plate already registered", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (r *sqliteVehicleRepo) GetByID(ctx context.Context, id string) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	return scanVehicle(row)
}

func (r *sqliteVehicleRepo) GetByDriverID(ctx context.Context, driverID string) (*models.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE driver_id = ?`, driverID)
	return scanVehicle(row)
}

func (r *sqliteVehicleRepo) ListPublic(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE is_available = 1 ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query public vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *sqliteVehicleRepo) UpdateLocation(ctx context.Context, vehicleID string, lat, lng float64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vehicles SET latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, lat, lng, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to update vehicle location: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: vehicle %s", pkg.ErrNotFound, vehicleID)
	}
	return nil
}

func (r *sqliteVehicleRepo) SetAvailable(ctx context.Context, vehicleID string, available bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE vehicles SET is_available = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, available, vehicleID)
	if err != nil {
		return fmt.Errorf("failed to update vehicle availability: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: vehicle %s", pkg.ErrNotFound, vehicleID)
	}
	return nil
}

func (r *sqliteVehicleRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	return nil
}

// scanVehicle, tek bir vehicle satırını okur. sql.ErrNoRows → pkg.ErrNotFound.
func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID, &v.DriverID, &v.Model, &v.LicensePlate, &v.Type,
		&v.Latitude, &v.Longitude, &v.IsAvailable, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: vehicle", pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan vehicle: %w", err)
	}
	return &v, nil
}
