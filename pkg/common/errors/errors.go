package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("store unavailable")
)

// ParseErrorKind classifies failures while parsing a class-definition file.
type ParseErrorKind string

const (
	MissingSegment       ParseErrorKind = "missing_segment"
	InvalidStructure     ParseErrorKind = "invalid_structure"
	MissingRequiredField ParseErrorKind = "missing_required_field"
)

// ParseError is fatal to the parse of a single file. Path identifies the
// offending file when known.
type ParseError struct {
	Kind ParseErrorKind
	Path string
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Path, msg, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", msg, e.Kind)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError of the given kind.
func NewParseError(kind ParseErrorKind, msg string, err error) *ParseError {
	return &ParseError{Kind: kind, Msg: msg, Err: err}
}

// WithPath returns a copy of the error annotated with the source file path.
func (e *ParseError) WithPath(path string) *ParseError {
	clone := *e
	clone.Path = path
	return &clone
}

// IsParseKind reports whether err is a ParseError of the given kind.
func IsParseKind(err error, kind ParseErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// ImportErrorKind classifies per-item failures during graph loading.
type ImportErrorKind string

const (
	DanglingReference ImportErrorKind = "dangling_reference"
	UpsertFailed      ImportErrorKind = "upsert_failed"
)

// ImportError is a per-item, non-fatal failure. The importer aggregates these
// into statistics rather than aborting the batch.
type ImportError struct {
	Kind ImportErrorKind
	Msg  string
	Err  error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%s)", e.Msg, e.Err, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Msg, e.Kind)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// NewImportError creates an ImportError of the given kind.
func NewImportError(kind ImportErrorKind, msg string, err error) *ImportError {
	return &ImportError{Kind: kind, Msg: msg, Err: err}
}

// IsImportKind reports whether err is an ImportError of the given kind.
func IsImportKind(err error, kind ImportErrorKind) bool {
	var ie *ImportError
	return errors.As(err, &ie) && ie.Kind == kind
}

// ConnectivityError means the graph store could not be reached. It is fatal
// to the whole import call and is not retried automatically.
type ConnectivityError struct {
	URI string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("graph store unreachable at %s: %v", e.URI, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a domain error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return NewAppError(http.StatusUnprocessableEntity, parseErr.Error(), err)
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return NewAppError(http.StatusServiceUnavailable, "Graph store unreachable", err)
	}

	// Map sentinel errors
	if errors.Is(err, ErrInvalidInput) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	}
	if errors.Is(err, ErrUnavailable) {
		return NewAppError(http.StatusServiceUnavailable, "Store unavailable", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
