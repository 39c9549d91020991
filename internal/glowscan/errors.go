package glowscan

import "fmt"

// NetworkError is returned when the service could not be reached at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServiceError is returned for a non-2xx response. Message carries the text
// the service put in the body, or a status fallback when it gave none.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// SoftWarning is a successful extraction the service flagged as unreliable,
// typically an OCR pass that found no text.
type SoftWarning struct {
	Message string
}

func (e *SoftWarning) Error() string {
	return e.Message
}

func statusFallback(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}
