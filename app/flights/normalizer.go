package flights

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lysyi3m/flight-comb/app/aviation"
)

type outcome int

const (
	kept outcome = iota
	skippedAirline
	skippedArrival
)

// Normalizer flattens raw upstream records into events.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize maps one page in order. Records without an airline code or an
// actual arrival time are skipped; a record with a broken shape fails the
// whole page with a *RecordError.
func (n *Normalizer) Normalize(page []aviation.RawFlight) ([]Event, Stats, error) {
	// Casers keep state and are not shared across calls.
	upper := cases.Upper(language.Und)

	events := make([]Event, 0, len(page))
	var stats Stats

	for i, rec := range page {
		event, result, err := normalizeRecord(upper, i, rec)
		if err != nil {
			return nil, stats, err
		}

		switch result {
		case skippedAirline:
			stats.SkippedAirline++
		case skippedArrival:
			stats.SkippedArrival++
		default:
			stats.Kept++
			events = append(events, event)
		}
	}

	return events, stats, nil
}

func normalizeRecord(upper cases.Caser, index int, rec aviation.RawFlight) (Event, outcome, error) {
	flight, err := required(index, rec.Flight, "flight")
	if err != nil {
		return Event{}, kept, err
	}
	if !flight.Codeshared.Present {
		return Event{}, kept, &RecordError{Index: index, Field: "flight.codeshared"}
	}

	// Codeshare flights carry the marketing carrier's identifiers.
	var airlineIATA, flightNumber, flightIATA aviation.Field[string]
	var airlinePath, numberPath, iataPath string
	if cs := flight.Codeshared.Value; cs != nil {
		airlineIATA, airlinePath = cs.AirlineIATA, "flight.codeshared.airline_iata"
		flightNumber, numberPath = cs.FlightNumber, "flight.codeshared.flight_number"
		flightIATA, iataPath = cs.FlightIATA, "flight.codeshared.flight_iata"
	} else {
		airline, err := required(index, rec.Airline, "airline")
		if err != nil {
			return Event{}, kept, err
		}
		airlineIATA, airlinePath = airline.IATA, "airline.iata"
		flightNumber, numberPath = flight.Number, "flight.number"
		flightIATA, iataPath = flight.IATA, "flight.iata"
	}

	airlineCode, err := present(index, airlineIATA, airlinePath)
	if err != nil {
		return Event{}, kept, err
	}
	if airlineCode == nil {
		return Event{}, skippedAirline, nil
	}

	number, err := required(index, flightNumber, numberPath)
	if err != nil {
		return Event{}, kept, err
	}
	iata, err := required(index, flightIATA, iataPath)
	if err != nil {
		return Event{}, kept, err
	}
	date, err := required(index, rec.FlightDate, "flight_date")
	if err != nil {
		return Event{}, kept, err
	}
	status, err := present(index, rec.FlightStatus, "flight_status")
	if err != nil {
		return Event{}, kept, err
	}
	dep, err := readEndpoint(upper, index, rec.Departure, "departure")
	if err != nil {
		return Event{}, kept, err
	}
	arr, err := readEndpoint(upper, index, rec.Arrival, "arrival")
	if err != nil {
		return Event{}, kept, err
	}

	if arr.actual == nil {
		return Event{}, skippedArrival, nil
	}

	return Event{
		FlightDate:            date,
		FlightStatus:          status,
		AirlineIATA:           upper.String(*airlineCode),
		FlightNumber:          upper.String(number),
		FlightIATA:            upper.String(iata),
		DepartureIATA:         dep.iata,
		DepartureScheduled:    dep.scheduled,
		DepartureActual:       dep.actual,
		DepartureActualRunway: dep.actualRunway,
		ArrivalIATA:           arr.iata,
		ArrivalScheduled:      arr.scheduled,
		ArrivalActual:         *arr.actual,
		ArrivalActualRunway:   arr.actualRunway,
	}, kept, nil
}

type endpoint struct {
	iata         string
	scheduled    *string
	actual       *string
	actualRunway *string
}

func readEndpoint(upper cases.Caser, index int, f aviation.Field[aviation.Endpoint], name string) (endpoint, error) {
	raw, err := required(index, f, name)
	if err != nil {
		return endpoint{}, err
	}

	var ep endpoint
	iata, err := required(index, raw.IATA, name+".iata")
	if err != nil {
		return endpoint{}, err
	}
	ep.iata = upper.String(iata)

	if ep.scheduled, err = present(index, raw.Scheduled, name+".scheduled"); err != nil {
		return endpoint{}, err
	}
	if ep.actual, err = present(index, raw.Actual, name+".actual"); err != nil {
		return endpoint{}, err
	}
	if ep.actualRunway, err = present(index, raw.ActualRunway, name+".actual_runway"); err != nil {
		return endpoint{}, err
	}

	return ep, nil
}

// required returns the value of a key that must be present and non-null.
func required[T any](index int, f aviation.Field[T], path string) (T, error) {
	var zero T
	if !f.Present {
		return zero, &RecordError{Index: index, Field: path}
	}
	if f.Value == nil {
		return zero, &RecordError{Index: index, Field: path, Null: true}
	}
	return *f.Value, nil
}

// present returns a nullable value whose key must still exist.
func present(index int, f aviation.Field[string], path string) (*string, error) {
	if !f.Present {
		return nil, &RecordError{Index: index, Field: path}
	}
	return f.Value, nil
}
