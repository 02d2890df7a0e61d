package flights

import (
	"github.com/lysyi3m/flight-comb/app/database"
)

// Event is a normalized landed flight. JSON field names and order match the
// rows written by every sink.
type Event struct {
	FlightDate            string  `json:"flight_date" yaml:"flight_date"`
	FlightStatus          *string `json:"flight_status" yaml:"flight_status"`
	AirlineIATA           string  `json:"airline_iata" yaml:"airline_iata"`
	FlightNumber          string  `json:"flight_number" yaml:"flight_number"`
	FlightIATA            string  `json:"flight_iata" yaml:"flight_iata"`
	DepartureIATA         string  `json:"departure_iata" yaml:"departure_iata"`
	DepartureScheduled    *string `json:"departure_scheduled" yaml:"departure_scheduled"`
	DepartureActual       *string `json:"departure_actual" yaml:"departure_actual"`
	DepartureActualRunway *string `json:"departure_actual_runway" yaml:"departure_actual_runway"`
	ArrivalIATA           string  `json:"arrival_iata" yaml:"arrival_iata"`
	ArrivalScheduled      *string `json:"arrival_scheduled" yaml:"arrival_scheduled"`
	ArrivalActual         string  `json:"arrival_actual" yaml:"arrival_actual"`
	ArrivalActualRunway   *string `json:"arrival_actual_runway" yaml:"arrival_actual_runway"`
}

// Flight converts the event into the stored row shape.
func (e Event) Flight() database.Flight {
	return database.Flight{
		FlightDate:            e.FlightDate,
		FlightStatus:          e.FlightStatus,
		AirlineIATA:           e.AirlineIATA,
		FlightNumber:          e.FlightNumber,
		FlightIATA:            e.FlightIATA,
		DepartureIATA:         e.DepartureIATA,
		DepartureScheduled:    e.DepartureScheduled,
		DepartureActual:       e.DepartureActual,
		DepartureActualRunway: e.DepartureActualRunway,
		ArrivalIATA:           e.ArrivalIATA,
		ArrivalScheduled:      e.ArrivalScheduled,
		ArrivalActual:         e.ArrivalActual,
		ArrivalActualRunway:   e.ArrivalActualRunway,
	}
}

func FromFlight(f database.Flight) Event {
	return Event{
		FlightDate:            f.FlightDate,
		FlightStatus:          f.FlightStatus,
		AirlineIATA:           f.AirlineIATA,
		FlightNumber:          f.FlightNumber,
		FlightIATA:            f.FlightIATA,
		DepartureIATA:         f.DepartureIATA,
		DepartureScheduled:    f.DepartureScheduled,
		DepartureActual:       f.DepartureActual,
		DepartureActualRunway: f.DepartureActualRunway,
		ArrivalIATA:           f.ArrivalIATA,
		ArrivalScheduled:      f.ArrivalScheduled,
		ArrivalActual:         f.ArrivalActual,
		ArrivalActualRunway:   f.ArrivalActualRunway,
	}
}

// Stats counts what happened to the records of one or more pages.
type Stats struct {
	Kept           int
	SkippedAirline int
	SkippedArrival int
}

func (s *Stats) Add(other Stats) {
	s.Kept += other.Kept
	s.SkippedAirline += other.SkippedAirline
	s.SkippedArrival += other.SkippedArrival
}

func (s Stats) Total() int {
	return s.Kept + s.SkippedAirline + s.SkippedArrival
}
