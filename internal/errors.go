package internal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBusy is returned when an operation is submitted while another one is in flight
	ErrBusy = errors.New("another operation is in progress")

	// ErrEmptyMessage is returned for blank user input
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSessionNotFound is returned for unknown session ids
	ErrSessionNotFound = errors.New("session not found")
)

// TimeoutError represents a request that did not complete before its deadline
type TimeoutError struct {
	Method  string
	Path    string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timed out after %s: %s %s", e.Timeout, e.Method, e.Path)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// HTTPError represents a non-2xx backend response
type HTTPError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("error %d", e.StatusCode)
}

// InvalidShapeError is returned when an import payload is neither an object nor an array
type InvalidShapeError struct {
	Kind string
}

func (e *InvalidShapeError) Error() string {
	if e.Kind == "" {
		return "invalid JSON shape"
	}
	return fmt.Sprintf("invalid JSON shape: %s", e.Kind)
}

// MissingTextError is returned when an import element has no usable text field
type MissingTextError struct {
	Position int // 1-based
}

func (e *MissingTextError) Error() string {
	return fmt.Sprintf("missing text field at position %d", e.Position)
}

// UnsupportedElementError is returned for import elements that are neither strings nor objects
type UnsupportedElementError struct {
	Position int // 1-based
	Kind     string
}

func (e *UnsupportedElementError) Error() string {
	return fmt.Sprintf("unsupported element in items (position %d, %s)", e.Position, e.Kind)
}

// PersistenceError represents errors reading or writing durable local state
type PersistenceError struct {
	Op  string // "open", "read", "write", "decode", "encode"
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PurgeError represents a failed best-effort remote cleanup of a session
type PurgeError struct {
	SessionID string
	Err       error
}

func (e *PurgeError) Error() string {
	return fmt.Sprintf("purge error [%s]: %v", e.SessionID, e.Err)
}

func (e *PurgeError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is, or wraps, a TimeoutError
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
