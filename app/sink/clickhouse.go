package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/lysyi3m/flight-comb/app/flights"
)

type ClickHouseConfig struct {
	Addr     string
	Database string
	User     string
	Password string
}

type clickHouseSink struct {
	conn driver.Conn
}

func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// NewClickHouse creates the flights table if needed. Rows sharing a natural
// key collapse on merge, keeping the latest ingest.
func NewClickHouse(ctx context.Context, conn driver.Conn) (Sink, error) {
	err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS flights (
		flight_date             Date,
		flight_status           LowCardinality(Nullable(String)),
		airline_iata            LowCardinality(String),
		flight_number           String,
		flight_iata             String,
		departure_iata          LowCardinality(String),
		departure_scheduled     Nullable(String),
		departure_actual        Nullable(String),
		departure_actual_runway Nullable(String),
		arrival_iata            LowCardinality(String),
		arrival_scheduled       Nullable(String),
		arrival_actual          String,
		arrival_actual_runway   Nullable(String),
		ingested_at             DateTime64(3) DEFAULT now64(3)
	)
	ENGINE = ReplacingMergeTree(ingested_at)
	PARTITION BY toYYYYMM(flight_date)
	ORDER BY (flight_date, flight_iata)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse schema: %w", err)
	}

	return &clickHouseSink{conn: conn}, nil
}

func (s *clickHouseSink) Name() string { return "clickhouse" }

func (s *clickHouseSink) Push(ctx context.Context, events []flights.Event) (Result, error) {
	if len(events) == 0 {
		return Result{}, nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO flights (
			flight_date, flight_status, airline_iata, flight_number, flight_iata,
			departure_iata, departure_scheduled, departure_actual, departure_actual_runway,
			arrival_iata, arrival_scheduled, arrival_actual, arrival_actual_runway
		)
	`)
	if err != nil {
		return Result{}, fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, e := range events {
		row, err := clickHouseRow(e)
		if err != nil {
			_ = batch.Abort()
			return Result{}, err
		}
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return Result{}, fmt.Errorf("failed to append %s/%s: %w", e.FlightDate, e.FlightIATA, err)
		}
	}

	if err := batch.Send(); err != nil {
		return Result{}, fmt.Errorf("failed to send batch: %w", err)
	}

	return Result{Written: len(events)}, nil
}

func clickHouseRow(e flights.Event) ([]any, error) {
	date, err := time.Parse("2006-01-02", e.FlightDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flight date %q: %w", e.FlightDate, err)
	}

	return []any{
		date, e.FlightStatus, e.AirlineIATA, e.FlightNumber, e.FlightIATA,
		e.DepartureIATA, e.DepartureScheduled, e.DepartureActual, e.DepartureActualRunway,
		e.ArrivalIATA, e.ArrivalScheduled, e.ArrivalActual, e.ArrivalActualRunway,
	}, nil
}
