package service

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failed backend request.
type ErrorKind int

const (
	// KindHTTP means the backend answered with an error status.
	KindHTTP ErrorKind = iota
	// KindNetwork means the backend could not be reached at all.
	KindNetwork
	// KindTimeout means the request deadline expired.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RequestError is returned for every failed backend request.
// Message is human readable and safe to show to the user.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Method  string
	Path    string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// AsRequestError extracts a RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err means the backend was unreachable or timed out.
func IsNetworkError(err error) bool {
	reqErr, ok := AsRequestError(err)
	return ok && (reqErr.Kind == KindNetwork || reqErr.Kind == KindTimeout)
}

// IsAuthError reports whether the backend rejected the credentials.
func IsAuthError(err error) bool {
	status := StatusCode(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if reqErr, ok := AsRequestError(err); ok && reqErr.Kind == KindHTTP {
		return reqErr.Status
	}
	return 0
}
