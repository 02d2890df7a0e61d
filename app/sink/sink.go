package sink

import (
	"context"

	"github.com/lysyi3m/flight-comb/app/flights"
)

// Result reports what a sink did with one batch. Skipped is only meaningful
// for sinks that deduplicate by natural key.
type Result struct {
	Written int
	Skipped int
}

// Sink receives the whole ordered batch of one run.
type Sink interface {
	Name() string
	Push(ctx context.Context, events []flights.Event) (Result, error)
}
