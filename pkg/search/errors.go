package search

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned by SubmitSearch when both title and author are
// blank. Nothing is sent and callers should treat it as a no-op.
var ErrEmptyQuery = errors.New("empty search query")

// ErrSuperseded is returned when a response arrived after a newer search
// (or a Clear) and was discarded.
var ErrSuperseded = errors.New("search superseded by a newer request")

// NetworkError means the backend could not be reached: no response was received.
type NetworkError struct {
	BaseURL string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("backend %s unreachable: %v", e.BaseURL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError means the backend answered with a non-2xx status.
type ServerError struct {
	StatusCode int
	Status     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend returned %d %s", e.StatusCode, e.Status)
}

// RequestError covers every other failure: bad base URL, request
// construction, unreadable or malformed response bodies.
type RequestError struct {
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

func IsNetwork(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

func IsServer(err error) bool {
	var e *ServerError
	return errors.As(err, &e)
}

func IsRequest(err error) bool {
	var e *RequestError
	return errors.As(err, &e)
}

// Describe returns the user-facing notice for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	var srvErr *ServerError
	var reqErr *RequestError
	switch {
	case errors.As(err, &netErr):
		return fmt.Sprintf("Cannot reach the search backend at %s. It may be unavailable or waking up; try again shortly.", netErr.BaseURL)
	case errors.As(err, &srvErr):
		return fmt.Sprintf("Search backend returned %d %s.", srvErr.StatusCode, srvErr.Status)
	case errors.As(err, &reqErr):
		return fmt.Sprintf("Search request failed: %s.", reqErr.Error())
	}
	return fmt.Sprintf("Search request failed: %v.", err)
}
