package aviation

import (
	"bytes"
	"encoding/json"
)

// Field is a JSON value that remembers whether its key was present in the
// payload and whether it was null. A zero Field means the key was absent.
type Field[T any] struct {
	Present bool
	Value   *T
}

// Set returns a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: &v}
}

// Null returns a present field holding JSON null.
func Null[T any]() Field[T] {
	return Field[T]{Present: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}

func (f Field[T]) IsNull() bool {
	return f.Value == nil
}

// Raw upstream record types. Only the keys read by the normalizer are mapped;
// anything else in the payload is ignored.

type RawFlight struct {
	FlightDate   Field[string]      `json:"flight_date"`
	FlightStatus Field[string]      `json:"flight_status"`
	Flight       Field[FlightInfo]  `json:"flight"`
	Airline      Field[AirlineInfo] `json:"airline"`
	Departure    Field[Endpoint]    `json:"departure"`
	Arrival      Field[Endpoint]    `json:"arrival"`
}

type FlightInfo struct {
	Number     Field[string]    `json:"number"`
	IATA       Field[string]    `json:"iata"`
	Codeshared Field[Codeshare] `json:"codeshared"`
}

// Codeshare carries the marketing carrier's identifiers.
type Codeshare struct {
	AirlineIATA  Field[string] `json:"airline_iata"`
	FlightNumber Field[string] `json:"flight_number"`
	FlightIATA   Field[string] `json:"flight_iata"`
}

type AirlineInfo struct {
	IATA Field[string] `json:"iata"`
}

type Endpoint struct {
	IATA         Field[string] `json:"iata"`
	Scheduled    Field[string] `json:"scheduled"`
	Actual       Field[string] `json:"actual"`
	ActualRunway Field[string] `json:"actual_runway"`
}

// envelope mirrors the JSON shape returned by /flights.
type envelope struct {
	Data  *[]RawFlight `json:"data"`
	Error *apiError    `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
