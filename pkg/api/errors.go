package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is matched by a TransportError carrying a 404 status
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized is matched by a TransportError carrying a 401 or 403 status
	ErrUnauthorized = errors.New("request not authorized")

	// ErrInvalidUUID is returned before any request is issued for a malformed node uuid
	ErrInvalidUUID = errors.New("invalid node uuid")
)

// TransportError describes a failed call: a network error, an unexpected
// status code or an undecodable body.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches the status sentinels so callers can use errors.Is.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
