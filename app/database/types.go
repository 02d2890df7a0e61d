package database

import (
	"time"
)

// Flight is one stored landed flight, keyed by (FlightDate, FlightIATA).
type Flight struct {
	ID                    int64
	FlightDate            string
	FlightStatus          *string
	AirlineIATA           string
	FlightNumber          string
	FlightIATA            string
	DepartureIATA         string
	DepartureScheduled    *string
	DepartureActual       *string
	DepartureActualRunway *string
	ArrivalIATA           string
	ArrivalScheduled      *string
	ArrivalActual         string
	ArrivalActualRunway   *string
	CreatedAt             time.Time
}

// InsertResult counts rows written and rows dropped by the natural key conflict.
type InsertResult struct {
	Inserted int
	Skipped  int
}

type FlightStats struct {
	Total      int
	Dates      int
	LatestDate string
	LastInsert *time.Time
}
