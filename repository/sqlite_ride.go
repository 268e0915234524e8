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

// sqliteRideRepo, RideRepository interface'inin SQLite implementasyonu.
//
// Diğer repo'lardan farklı olarak *sql.DB alır (TxQuerier değil) —
// Create, rides + ride_passengers yazmalarını database.WithTx ile tek
// transaction'da yapmak zorundadır.
type sqliteRideRepo struct {
	db *sql.DB
}

// NewSQLiteRideRepo, constructor.
func NewSQLiteRideRepo(db *sql.DB) RideRepository {
	return &sqliteRideRepo{db: db}
}

func (r *sqliteRideRepo) Create(ctx context.Context, ride *models.Ride) error {
	ride.ID = uuid.NewString()
	ride.Status = models.RidePending

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO rides (id, status, start_address, end_address, start_lat, start_lng, end_lat, end_lng)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING requested_at`,
			ride.ID, ride.Status,
			ride.StartAddress, ride.EndAddress,
			ride.StartLat, ride.StartLng, ride.EndLat, ride.EndLng,
		).Scan(&ride.RequestedAt)
		if err != nil {
			return fmt.Errorf("failed to create ride: %w", err)
		}

		for _, passengerID := range ride.PassengerIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ride_passengers (ride_id, passenger_id) VALUES (?, ?)`,
				ride.ID, passengerID,
			); err != nil {
				return fmt.Errorf("failed to attach passenger %s: %w", passengerID, err)
			}
		}
		return nil
	})
}

const rideColumns = `id, COALESCE(driver_id, ''), status, start_address, end_address,
	start_lat, start_lng, end_lat, end_lng, requested_at, started_at, finished_at`

func (r *sqliteRideRepo) GetByID(ctx context.Context, id string) (*models.Ride, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ?`, id)

	ride, err := scanRide(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadPassengers(ctx, ride); err != nil {
		return nil, err
	}
	return ride, nil
}

func (r *sqliteRideRepo) ListByStatus(ctx context.Context, status models.RideStatus) ([]models.Ride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE status = ? ORDER BY requested_at`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query rides: %w", err)
	}
	defer rows.Close()

	var rides []models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rides: %w", err)
	}

	for i := range rides {
		if err := r.loadPassengers(ctx, &rides[i]); err != nil {
			return nil, err
		}
	}
	return rides, nil
}

func (r *sqliteRideRepo) UpdateStatus(ctx context.Context, rideID string, expected, next models.RideStatus, driverID string) error {
	// started_at / finished_at zaman damgaları geçişe göre atanır.
	// driver_id yalnızca accept geçişinde yazılır; diğer geçişlerde korunur.
	query := `
		UPDATE rides SET
			status = ?,
			driver_id = CASE WHEN ? != '' THEN ? ELSE driver_id END,
			started_at = CASE WHEN ? = 'active' THEN CURRENT_TIMESTAMP ELSE started_at END,
			finished_at = CASE WHEN ? IN ('finished', 'canceled') THEN CURRENT_TIMESTAMP ELSE finished_at END
		WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		next, driverID, driverID, next, next, rideID, expected)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		// Ride yok veya beklenen durumda değil — yarışı kaybeden taraf.
		return fmt.Errorf("%w: ride %s is not in %s state", pkg.ErrBadRequest, rideID, expected)
	}
	return nil
}

// loadPassengers, ride_passengers tablosundan yolcu ID'lerini yükler.
func (r *sqliteRideRepo) loadPassengers(ctx context.Context, ride *models.Ride) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT passenger_id FROM ride_passengers WHERE ride_id = ?`, ride.ID)
	if err != nil {
		return fmt.Errorf("failed to query ride passengers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan passenger: %w", err)
		}
		ride.PassengerIDs = append(ride.PassengerIDs, id)
	}
	return rows.Err()
}

// scanRide, tek bir ride satırını okur. sql.ErrNoRows → pkg.ErrNotFound.
func scanRide(row rowScanner) (*models.Ride, error) {
	var ride models.Ride
	var startedAt, finishedAt sql.NullTime

	err := row.Scan(
		&ride.ID, &ride.DriverID, &ride.Status,
		&ride.StartAddress, &ride.EndAddress,
		&ride.StartLat, &ride.StartLng, &ride.EndLat, &ride.EndLng,
		&ride.RequestedAt, &startedAt, &finishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ride", pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan ride: %w", err)
	}

	if startedAt.Valid {
		ride.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		ride.FinishedAt = &finishedAt.Time
	}
	return &ride, nil
}
