package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned before any request is issued when no token is held.
	ErrUnauthenticated = errors.New("backend: no session token")
	// ErrReportFailed means the report endpoint answered 200 without status "success".
	ErrReportFailed = errors.New("backend: report status is not success")
)

// HTTPError is a response that reached us with a status other than 200.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: http %d", e.Status)
	}
	return fmt.Sprintf("backend: http %d: %s", e.Status, e.Message)
}

// TransportError means no response reached us.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MessageOf returns the backend-provided error text carried by err, if any.
func MessageOf(err error) (string, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message, true
	}
	return "", false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
