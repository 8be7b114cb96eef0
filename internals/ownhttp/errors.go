package ownhttp

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportErrorKind tells what went wrong while fetching
type TransportErrorKind int

const (
	// Timeout is a connect, header or idle read timeout
	Timeout TransportErrorKind = iota
	// ConnectionFailed is any other network level failure
	ConnectionFailed
	// HTTPStatus is a response with a status other than 200
	HTTPStatus
)

func (k TransportErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case ConnectionFailed:
		return "connection failed"
	case HTTPStatus:
		return "http status"
	}
	return "unknown"
}

var (
	ErrTimeout          = errors.New("request timed out")
	ErrConnectionFailed = errors.New("connection failed")
	ErrHTTPStatus       = errors.New("unexpected http status")
)

// TransportError is returned for failed requests
type TransportError struct {
	Kind       TransportErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Kind == HTTPStatus {
		return fmt.Sprintf("invalid status code: %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s while fetching %s: %s", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s while fetching %s", e.Kind, e.URL)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches the Err* sentinels of the same kind
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == Timeout
	case ErrConnectionFailed:
		return e.Kind == ConnectionFailed
	case ErrHTTPStatus:
		return e.Kind == HTTPStatus
	}
	return false
}

// Temporary reports if the request might succeed when it is retried.
// Client errors (4xx) other than 429 are final.
func (e *TransportError) Temporary() bool {
	if e.Kind != HTTPStatus {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTemporary checks err for a temporary [TransportError]
func IsTemporary(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr) && tErr.Temporary()
}
