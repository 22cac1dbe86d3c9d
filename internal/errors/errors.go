// Package errors holds the error taxonomy for the whole project.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Typed UpstreamError / PersistenceError carrying source context
// - Error category checking functions
// - Error wrapping utilities

package errors

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/xtxerr/feedlog/internal/constants"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// Pipeline categories
	ErrUpstream       = errors.New("upstream error")
	ErrPersistence    = errors.New("persistence error")
	ErrResolutionMiss = errors.New("name resolution miss")

	// Upstream details
	ErrTimeout           = errors.New("timeout")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoEntries         = errors.New("response has no usable entries")
	ErrNotConfigured     = errors.New("source not configured")

	// Validation errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingField  = errors.New("missing required field")

	// Lookup errors
	ErrNotFound = errors.New("not found")
)

// ============================================================================
// Typed errors
// ============================================================================

// UpstreamError reports a failed call to a remote API.
// It matches ErrUpstream with errors.Is and unwraps to its cause.
type UpstreamError struct {
	Source string
	URL    string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *UpstreamError) Error() string {
	msg := "upstream " + e.Source
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstream) true for every UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Timeout reports whether the call ran out of time.
func (e *UpstreamError) Timeout() bool {
	if errors.Is(e.Err, ErrTimeout) {
		return true
	}
	var ne net.Error
	if errors.As(e.Err, &ne) && ne.Timeout() {
		return true
	}
	var ue *url.Error
	return errors.As(e.Err, &ue) && ue.Timeout()
}

// NewUpstream builds an UpstreamError.
func NewUpstream(source, rawURL string, status int, err error) *UpstreamError {
	return &UpstreamError{Source: source, URL: rawURL, Status: status, Err: err}
}

// PersistenceError reports an unrecoverable I/O failure on a table or cache file.
type PersistenceError struct {
	Table string
	Op    string // "read", "write", "decode"
	Path  string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %s %s: %v", e.Table, e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrPersistence) true for every PersistenceError.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NewPersistence builds a PersistenceError.
func NewPersistence(table, op, path string, err error) *PersistenceError {
	return &PersistenceError{Table: table, Op: op, Path: path, Err: err}
}

// ============================================================================
// Helper functions for error checking
// ============================================================================

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// New is a convenience wrapper for errors.New
var New = errors.New

// IsUpstream returns true if err came from a remote API call.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// IsPersistence returns true if err came from reading or writing local files.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsTimeout returns true if err is a timeout of an outbound call.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Timeout()
}

// IsRetriable returns true if the next scheduled run has a fair chance of succeeding.
func IsRetriable(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status == 0 || ue.Status == 429 || ue.Status >= 500
	}
	return false
}

// Kind returns a short label for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return constants.ResultOK
	case IsUpstream(err):
		return constants.ResultUpstream
	case IsPersistence(err):
		return constants.ResultPersistence
	default:
		return constants.ResultInternal
	}
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ============================================================================
// Error constructors with context
// ============================================================================

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s '%s': %w", entityType, identifier, ErrNotFound)
}

// NewValidation creates a validation error with context.
func NewValidation(field, reason string) error {
	return fmt.Errorf("invalid %s: %s: %w", field, reason, ErrInvalidConfig)
}

// NewMissingField creates a missing field error.
func NewMissingField(field string) error {
	return fmt.Errorf("%s: %w", field, ErrMissingField)
}

// ============================================================================
// Validation Errors Collection
// ============================================================================

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []error
}

// NewValidationErrors creates a new ValidationErrors collector.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add adds an error to the collection.
func (v *ValidationErrors) Add(err error) {
	if err != nil {
		v.Errors = append(v.Errors, err)
	}
}

// AddField adds a field validation error.
func (v *ValidationErrors) AddField(field, reason string) {
	v.Errors = append(v.Errors, NewValidation(field, reason))
}

// AddMissing adds a missing field error.
func (v *ValidationErrors) AddMissing(field string) {
	v.Errors = append(v.Errors, NewMissingField(field))
}

// HasErrors returns true if there are any errors.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}

	msg := fmt.Sprintf("validation failed with %d errors:", len(v.Errors))
	for _, err := range v.Errors {
		msg += "\n  - " + err.Error()
	}
	return msg
}

// Err returns nil if no errors, otherwise returns the ValidationErrors.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

// Unwrap returns the first error for errors.Is/As support.
func (v *ValidationErrors) Unwrap() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v.Errors[0]
}
