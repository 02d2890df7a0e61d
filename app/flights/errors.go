package flights

import (
	"errors"
	"fmt"
)

var ErrMalformedRecord = errors.New("malformed record")

// RecordError points at the record and key that broke the expected shape.
type RecordError struct {
	Index int
	Field string
	Null  bool
}

func (e *RecordError) Error() string {
	state := "missing"
	if e.Null {
		state = "null"
	}
	return fmt.Sprintf("%s: record %d: %s is %s", ErrMalformedRecord, e.Index, e.Field, state)
}

func (e *RecordError) Unwrap() error {
	return ErrMalformedRecord
}
