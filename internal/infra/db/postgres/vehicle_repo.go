package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/madhus/roadwatch/internal/domain/vehicles"
)

type VehicleRepository struct{ db *sql.DB }

func NewVehicleRepository(db *sql.DB) *VehicleRepository { return &VehicleRepository{db: db} }

// Connect opens the vehicle registry database (read-only from this service).
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		return nil, err
	}
	return db, nil
}

// Lookup returns the registry entry for a plate, or (nil, nil) when absent.
func (r *VehicleRepository) Lookup(ctx context.Context, plate string) (*domain.Vehicle, error) {
	const q = `
SELECT number_plate, owner_name, owner_phone, owner_email, model, color, registered_at
FROM vehicles
WHERE number_plate = $1
LIMIT 1;`

	var v domain.Vehicle
	err := r.db.QueryRowContext(ctx, q, plate).Scan(
		&v.Plate, &v.OwnerName, &v.OwnerPhone, &v.OwnerEmail,
		&v.Model, &v.Color, &v.RegisteredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
