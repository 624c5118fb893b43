package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrFetchFailed matches every failed TMDb call, whatever the cause.
	ErrFetchFailed = errors.New("failed to fetch movies")

	// ErrNotFound matches calls TMDb answered with "resource not found".
	ErrNotFound = errors.New("movie not found")
)

// TMDb status_code for an unknown resource.
const statusResourceNotFound = 34

type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindStatus
	KindPayload
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindPayload:
		return "payload"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// APIError is returned by every Client method. Callers that only care about
// failure test errors.Is(err, ErrFetchFailed); Kind and StatusCode are kept for logs.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	TMDbCode   int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("tmdb %s %s failed", e.Endpoint, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrFetchFailed:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.TMDbCode == statusResourceNotFound
	}
	return false
}
