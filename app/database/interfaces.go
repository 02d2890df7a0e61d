package database

import (
	"context"

	migratedb "github.com/golang-migrate/migrate/v4/database"
)

type FlightRepository interface {
	// InsertFlights writes the batch in one transaction, skipping rows whose
	// (flight_date, flight_iata) already exists. Nothing is committed on error.
	InsertFlights(ctx context.Context, flights []Flight) (InsertResult, error)

	GetFlightsByDate(ctx context.Context, date string) ([]Flight, error)
	GetRecentFlights(ctx context.Context, limit int) ([]Flight, error)
	GetFlightStats(ctx context.Context) (FlightStats, error)

	Ping(ctx context.Context) error
}

// Store is a FlightRepository that owns its connection and schema.
type Store interface {
	FlightRepository
	Driver() string
	Close() error

	migrationDriver() (migratedb.Driver, string, error)
}
