package ocr

import (
	"errors"
	"fmt"
)

// ServiceUnavailableError indicates a transient extraction-service failure:
// an HTTP 5xx response, a transport error or a timeout. Retryable.
type ServiceUnavailableError struct {
	Message string
	Cause   error
}

func (e *ServiceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction service unavailable: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction service unavailable: %s", e.Message)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Cause
}

// InvalidInputError indicates the service rejected the document (HTTP 4xx
// or a malformed document). Not retryable.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("extraction input invalid: %s", e.Message)
}

// ErrEmptyResult indicates the service responded successfully but produced
// no usable text. Not retryable, but kept distinct from InvalidInputError
// for observability.
var ErrEmptyResult = errors.New("extraction produced no text")

// Retryable reports whether err is worth retrying against the service.
func Retryable(err error) bool {
	var unavailable *ServiceUnavailableError
	return errors.As(err, &unavailable)
}
