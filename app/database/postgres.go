package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const dateLayout = "2006-01-02"

type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PostgresDB stores flights in PostgreSQL through a pgx pool.
type PostgresDB struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 5
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (d *PostgresDB) Driver() string {
	return DriverPostgres
}

func (d *PostgresDB) Close() error {
	d.pool.Close()
	return nil
}

func (d *PostgresDB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *PostgresDB) migrationDriver() (migratedb.Driver, string, error) {
	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(d.pool), &migratepgx.Config{})
	if err != nil {
		return nil, "", err
	}
	return driver, "migrations/postgres", nil
}

func (d *PostgresDB) InsertFlights(ctx context.Context, flights []Flight) (InsertResult, error) {
	var result InsertResult
	if len(flights) == 0 {
		return result, nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, f := range flights {
		date, err := time.Parse(dateLayout, f.FlightDate)
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to parse flight date %q: %w", f.FlightDate, err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO flights (
				flight_date, flight_status, airline_iata, flight_number, flight_iata,
				departure_iata, departure_scheduled, departure_actual, departure_actual_runway,
				arrival_iata, arrival_scheduled, arrival_actual, arrival_actual_runway
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (flight_date, flight_iata) DO NOTHING
		`, date, f.FlightStatus, f.AirlineIATA, f.FlightNumber, f.FlightIATA,
			f.DepartureIATA, f.DepartureScheduled, f.DepartureActual, f.DepartureActualRunway,
			f.ArrivalIATA, f.ArrivalScheduled, f.ArrivalActual, f.ArrivalActualRunway)
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to insert flight %s/%s: %w", f.FlightDate, f.FlightIATA, err)
		}

		if tag.RowsAffected() > 0 {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return InsertResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

const postgresFlightColumns = `
	id, to_char(flight_date, 'YYYY-MM-DD'), flight_status, airline_iata, flight_number, flight_iata,
	departure_iata, departure_scheduled, departure_actual, departure_actual_runway,
	arrival_iata, arrival_scheduled, arrival_actual, arrival_actual_runway, created_at`

func (d *PostgresDB) GetFlightsByDate(ctx context.Context, date string) ([]Flight, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flight date %q: %w", date, err)
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+postgresFlightColumns+`
		FROM flights
		WHERE flight_date = $1
		ORDER BY arrival_actual, flight_iata
	`, day)
	if err != nil {
		return nil, fmt.Errorf("failed to get flights by date: %w", err)
	}

	return collectPostgresFlights(rows)
}

func (d *PostgresDB) GetRecentFlights(ctx context.Context, limit int) ([]Flight, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+postgresFlightColumns+`
		FROM flights
		ORDER BY arrival_actual DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent flights: %w", err)
	}

	return collectPostgresFlights(rows)
}

func (d *PostgresDB) GetFlightStats(ctx context.Context) (FlightStats, error) {
	var stats FlightStats
	var latest *string

	err := d.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT flight_date), to_char(MAX(flight_date), 'YYYY-MM-DD'), MAX(created_at)
		FROM flights
	`).Scan(&stats.Total, &stats.Dates, &latest, &stats.LastInsert)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return FlightStats{}, fmt.Errorf("failed to get flight stats: %w", err)
	}

	if latest != nil {
		stats.LatestDate = *latest
	}

	return stats, nil
}

func collectPostgresFlights(rows pgx.Rows) ([]Flight, error) {
	flights, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Flight, error) {
		var f Flight
		err := row.Scan(
			&f.ID, &f.FlightDate, &f.FlightStatus, &f.AirlineIATA, &f.FlightNumber, &f.FlightIATA,
			&f.DepartureIATA, &f.DepartureScheduled, &f.DepartureActual, &f.DepartureActualRunway,
			&f.ArrivalIATA, &f.ArrivalScheduled, &f.ArrivalActual, &f.ArrivalActualRunway, &f.CreatedAt,
		)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan flight rows: %w", err)
	}

	return flights, nil
}
