// Package domain holds the types shared by the videohub client and server:
// the video metadata record and the error taxonomy.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation marks empty or malformed user input.
	ErrValidation = errors.New("validation error")
	// ErrDuplicate is returned when an endpoint is already registered.
	ErrDuplicate = errors.New("endpoint already registered")
	// ErrNoEndpoint is returned when an upload is attempted with no active endpoint.
	ErrNoEndpoint = errors.New("no endpoint configured")
)

// TransportError reports a network failure or a non-success HTTP status.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int    // 0 when the request never got a response
	Message    string // server supplied error message, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerValidationError is a receiver-side rejection of an upload.
type ServerValidationError struct {
	Status  int
	Message string
}

func (e *ServerValidationError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Rejectf builds a ServerValidationError.
func Rejectf(status int, format string, args ...any) *ServerValidationError {
	return &ServerValidationError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps failures to move files or read/write metadata.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorage reports whether err is or wraps a *StorageError.
func IsStorage(err error) bool {
	var e *StorageError
	return errors.As(err, &e)
}
