package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func strPtr(s string) *string {
	return &s
}

func openTestSQLite(t *testing.T) Store {
	t.Helper()

	store, err := Open(context.Background(), Config{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "flights.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testFlight(date, iata, arrival string) Flight {
	return Flight{
		FlightDate:       date,
		FlightStatus:     strPtr("landed"),
		AirlineIATA:      iata[:2],
		FlightNumber:     iata[2:],
		FlightIATA:       iata,
		DepartureIATA:    "AUS",
		ArrivalIATA:      "ORD",
		ArrivalScheduled: strPtr("2025-07-01T12:00:00+00:00"),
		ArrivalActual:    arrival,
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	if !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Expected ErrUnknownDriver, got: %v", err)
	}
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	store := openTestSQLite(t)

	version, dirty, err := RunMigrations(store)
	if err != nil {
		t.Fatalf("Expected no error on second migration run, got: %v", err)
	}
	if version != 1 {
		t.Errorf("Expected schema version 1, got %d", version)
	}
	if dirty {
		t.Error("Expected clean schema")
	}
}

func TestSQLiteInsertFlightsSkipsDuplicates(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	batch := []Flight{
		testFlight("2025-07-01", "AA123", "2025-07-01T12:05:00+00:00"),
		testFlight("2025-07-01", "UA456", "2025-07-01T13:05:00+00:00"),
	}

	result, err := store.InsertFlights(ctx, batch)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Inserted != 2 || result.Skipped != 0 {
		t.Errorf("Expected 2 inserted and 0 skipped, got %+v", result)
	}

	// Same natural key on a rerun, plus one new flight.
	rerun := append(batch, testFlight("2025-07-02", "AA123", "2025-07-02T12:05:00+00:00"))
	result, err = store.InsertFlights(ctx, rerun)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 2 {
		t.Errorf("Expected 1 inserted and 2 skipped, got %+v", result)
	}

	stats, err := store.GetFlightStats(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Expected 3 stored flights, got %d", stats.Total)
	}
	if stats.Dates != 2 {
		t.Errorf("Expected 2 distinct dates, got %d", stats.Dates)
	}
	if stats.LatestDate != "2025-07-02" {
		t.Errorf("Expected latest date '2025-07-02', got '%s'", stats.LatestDate)
	}
	if stats.LastInsert == nil {
		t.Error("Expected last insert time to be set")
	}
}

func TestSQLiteInsertDoesNotUpdateExistingRows(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	if _, err := store.InsertFlights(ctx, []Flight{testFlight("2025-07-01", "AA123", "first")}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := store.InsertFlights(ctx, []Flight{testFlight("2025-07-01", "AA123", "second")}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	flights, err := store.GetFlightsByDate(ctx, "2025-07-01")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(flights) != 1 {
		t.Fatalf("Expected 1 flight, got %d", len(flights))
	}
	if flights[0].ArrivalActual != "first" {
		t.Errorf("Expected original row to be kept, got arrival '%s'", flights[0].ArrivalActual)
	}
}

func TestSQLiteInsertRollsBackOnError(t *testing.T) {
	store := openTestSQLite(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.InsertFlights(ctx, []Flight{testFlight("2025-07-01", "AA123", "t4")})
	if err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}

	stats, err := store.GetFlightStats(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("Expected nothing committed, got %d rows", stats.Total)
	}
}

func TestSQLiteReadBack(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	flight := testFlight("2025-07-01", "AA123", "2025-07-01T12:05:00+00:00")
	flight.DepartureActualRunway = nil
	flight.ArrivalActualRunway = strPtr("2025-07-01T12:01:00+00:00")

	_, err := store.InsertFlights(ctx, []Flight{
		flight,
		testFlight("2025-07-01", "UA456", "2025-07-01T13:05:00+00:00"),
		testFlight("2025-06-30", "DL789", "2025-06-30T09:00:00+00:00"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	byDate, err := store.GetFlightsByDate(ctx, "2025-07-01")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(byDate) != 2 {
		t.Fatalf("Expected 2 flights on 2025-07-01, got %d", len(byDate))
	}

	got := byDate[0]
	if got.FlightIATA != "AA123" {
		t.Errorf("Expected earliest arrival first, got '%s'", got.FlightIATA)
	}
	if got.FlightStatus == nil || *got.FlightStatus != "landed" {
		t.Errorf("Expected status 'landed', got %v", got.FlightStatus)
	}
	if got.DepartureActualRunway != nil {
		t.Errorf("Expected null departure runway, got %v", *got.DepartureActualRunway)
	}
	if got.ArrivalActualRunway == nil || *got.ArrivalActualRunway != "2025-07-01T12:01:00+00:00" {
		t.Errorf("Expected arrival runway to round trip, got %v", got.ArrivalActualRunway)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}

	recent, err := store.GetRecentFlights(ctx, 2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent flights, got %d", len(recent))
	}
	if recent[0].FlightIATA != "UA456" || recent[1].FlightIATA != "AA123" {
		t.Errorf("Expected latest arrivals first, got %s, %s", recent[0].FlightIATA, recent[1].FlightIATA)
	}
}

func TestSQLiteEmptyStats(t *testing.T) {
	store := openTestSQLite(t)

	stats, err := store.GetFlightStats(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Total != 0 || stats.LatestDate != "" || stats.LastInsert != nil {
		t.Errorf("Expected empty stats, got %+v", stats)
	}

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed, got: %v", err)
	}
}
