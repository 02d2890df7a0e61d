package sink

import (
	"context"
	"fmt"

	"github.com/lysyi3m/flight-comb/app/database"
	"github.com/lysyi3m/flight-comb/app/flights"
)

type databaseSink struct {
	repo database.FlightRepository
}

// NewDatabase inserts batches into the flights table, ignoring rows whose
// natural key is already stored.
func NewDatabase(repo database.FlightRepository) Sink {
	return &databaseSink{repo: repo}
}

func (s *databaseSink) Name() string { return "database" }

func (s *databaseSink) Push(ctx context.Context, events []flights.Event) (Result, error) {
	rows := make([]database.Flight, len(events))
	for i, e := range events {
		rows[i] = e.Flight()
	}

	res, err := s.repo.InsertFlights(ctx, rows)
	if err != nil {
		return Result{}, fmt.Errorf("failed to insert flights: %w", err)
	}

	return Result{Written: res.Inserted, Skipped: res.Skipped}, nil
}
