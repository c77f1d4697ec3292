package client

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/invoice-collator/internal/common"
)

// ErrUnauthorized is returned when the service answers 401 on either endpoint.
var ErrUnauthorized = common.ErrUnauthorized

// ErrEmptyBody is the parse failure for a 2xx response without a body.
var ErrEmptyBody = errors.New("empty response body")

// StatusError is a non-2xx, non-401 answer from the service.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return common.ErrTransport }

// TransportError is a request that never produced a response.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{common.ErrTransport, e.Err} }

// ParseError is a 2xx body that is empty or not the expected JSON.
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unable to parse JSON: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{common.ErrParse, e.Err} }

// IsUnauthorized reports whether err came from a 401 answer.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
