package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"
)

// SQLiteDB stores flights in a local SQLite file.
type SQLiteDB struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// One writer; avoids SQLITE_BUSY between the sink and the API.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func (d *SQLiteDB) Driver() string {
	return DriverSQLite
}

func (d *SQLiteDB) Close() error {
	return d.db.Close()
}

func (d *SQLiteDB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *SQLiteDB) migrationDriver() (migratedb.Driver, string, error) {
	driver, err := migratesqlite.WithInstance(d.db, &migratesqlite.Config{})
	if err != nil {
		return nil, "", err
	}
	return driver, "migrations/sqlite", nil
}

func (d *SQLiteDB) InsertFlights(ctx context.Context, flights []Flight) (InsertResult, error) {
	var result InsertResult
	if len(flights) == 0 {
		return result, nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flights (
			flight_date, flight_status, airline_iata, flight_number, flight_iata,
			departure_iata, departure_scheduled, departure_actual, departure_actual_runway,
			arrival_iata, arrival_scheduled, arrival_actual, arrival_actual_runway, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (flight_date, flight_iata) DO NOTHING
	`)
	if err != nil {
		return result, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, f := range flights {
		res, err := stmt.ExecContext(ctx,
			f.FlightDate, f.FlightStatus, f.AirlineIATA, f.FlightNumber, f.FlightIATA,
			f.DepartureIATA, f.DepartureScheduled, f.DepartureActual, f.DepartureActualRunway,
			f.ArrivalIATA, f.ArrivalScheduled, f.ArrivalActual, f.ArrivalActualRunway, now)
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to insert flight %s/%s: %w", f.FlightDate, f.FlightIATA, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected > 0 {
			result.Inserted++
		} else {
			result.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

const sqliteFlightColumns = `
	id, flight_date, flight_status, airline_iata, flight_number, flight_iata,
	departure_iata, departure_scheduled, departure_actual, departure_actual_runway,
	arrival_iata, arrival_scheduled, arrival_actual, arrival_actual_runway, created_at`

func (d *SQLiteDB) GetFlightsByDate(ctx context.Context, date string) ([]Flight, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+sqliteFlightColumns+`
		FROM flights
		WHERE flight_date = ?
		ORDER BY arrival_actual, flight_iata
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get flights by date: %w", err)
	}

	return scanSQLiteFlights(rows)
}

func (d *SQLiteDB) GetRecentFlights(ctx context.Context, limit int) ([]Flight, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+sqliteFlightColumns+`
		FROM flights
		ORDER BY arrival_actual DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent flights: %w", err)
	}

	return scanSQLiteFlights(rows)
}

func (d *SQLiteDB) GetFlightStats(ctx context.Context) (FlightStats, error) {
	var stats FlightStats
	var latest, lastInsert sql.NullString

	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT flight_date), MAX(flight_date), MAX(created_at)
		FROM flights
	`).Scan(&stats.Total, &stats.Dates, &latest, &lastInsert)
	if err != nil {
		return FlightStats{}, fmt.Errorf("failed to get flight stats: %w", err)
	}

	stats.LatestDate = latest.String
	if lastInsert.Valid {
		t, err := time.Parse(time.RFC3339Nano, lastInsert.String)
		if err != nil {
			return FlightStats{}, fmt.Errorf("failed to parse created_at %q: %w", lastInsert.String, err)
		}
		stats.LastInsert = &t
	}

	return stats, nil
}

func scanSQLiteFlights(rows *sql.Rows) ([]Flight, error) {
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		var createdAt string
		err := rows.Scan(
			&f.ID, &f.FlightDate, &f.FlightStatus, &f.AirlineIATA, &f.FlightNumber, &f.FlightIATA,
			&f.DepartureIATA, &f.DepartureScheduled, &f.DepartureActual, &f.DepartureActualRunway,
			&f.ArrivalIATA, &f.ArrivalScheduled, &f.ArrivalActual, &f.ArrivalActualRunway, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight row: %w", err)
		}

		f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at %q: %w", createdAt, err)
		}

		flights = append(flights, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flight rows: %w", err)
	}

	return flights, nil
}
