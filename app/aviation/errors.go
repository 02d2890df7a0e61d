package aviation

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrTransport reports that a page request could not complete.
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse reports a body that is not an object with a data array.
	ErrMalformedResponse = errors.New("malformed response")
)

// redact drops the request URL from net/http errors so the access key never
// ends up in logs.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
