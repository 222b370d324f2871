package fluent

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHost is wrapped by errors returned from [ParseHost] and the
	// string-based auth convenience methods when the host is malformed.
	ErrInvalidHost = errors.New("invalid host")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrContentAlreadyConsumed is returned when a [Response] body is accessed
	// after it was already consumed or discarded.
	ErrContentAlreadyConsumed = errors.New("response content already consumed")
)

// StatusError is returned when a response status code does not match
// the expected value.
type StatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}
