package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error taxonomy of the resource layer
var (
	// Transport failure: offline, refused, timeout
	ErrNetwork = errors.New("network error")
	// Backend answered with a 5xx status
	ErrServer = errors.New("server error")
	// 4xx with field-level messages, or a payload/record that fails its schema
	ErrValidation = errors.New("validation failed")
	// 404 on a single-record fetch
	ErrNotFound = errors.New("record not found")
	// Delete rejected because dependents exist
	ErrConflict = errors.New("conflict")
)

// Setup errors
var (
	ErrInvalidQuery    = errors.New("invalid query")
	ErrUnknownResource = errors.New("unknown resource")
)

// CodeCollectionNotFound marks a 404 on a list path. It is kept apart from
// a missing record so callers can tell a misrouted backend from a stale id.
const CodeCollectionNotFound = "COLLECTION_NOT_FOUND"

// ErrSubmissionInFlight rejects a second submit of a form whose first submit has not returned
var ErrSubmissionInFlight = errors.New("submission already in flight")

// CustomError represents resource-layer errors with additional context
type CustomError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
	Resource   string
	// Fields maps a payload field name to its messages
	Fields map[string][]string
}

// Error implements error interface
func (e *CustomError) Error() string {
	var b strings.Builder
	if e.Resource != "" {
		b.WriteString(e.Resource)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("unknown error")
	}
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.FieldNames(), ", "))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// FieldNames returns the names of fields carrying messages, sorted
func (e *CustomError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithResource records the resource collection the error belongs to
func (e *CustomError) WithResource(resource string) *CustomError {
	e.Resource = resource
	return e
}

// WithStatus records the HTTP status returned by the backend
func (e *CustomError) WithStatus(status int) *CustomError {
	e.StatusCode = status
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithField appends a message for a single field
func (e *CustomError) WithField(field, message string) *CustomError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// NewNetworkError wraps a transport failure
func NewNetworkError(resource string, cause error) error {
	return &CustomError{
		Err:      ErrNetwork,
		Message:  fmt.Sprintf("request failed: %v", cause),
		Resource: resource,
	}
}

// NewServerError reports a 5xx answer
func NewServerError(resource string, status int, message string) error {
	if message == "" {
		message = fmt.Sprintf("backend returned status %d", status)
	}
	return &CustomError{
		Err:        ErrServer,
		Message:    message,
		Resource:   resource,
		StatusCode: status,
	}
}

// NewNotFoundError reports an id that does not resolve
func NewNotFoundError(resource string, id int64) error {
	return &CustomError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("record %d not found", id),
		Resource:   resource,
		StatusCode: 404,
	}
}

// NewCollectionNotFoundError reports a list path the backend does not serve
func NewCollectionNotFoundError(resource string) error {
	return NewCustomError(ErrNotFound, "collection not found").
		WithResource(resource).
		WithStatus(404).
		WithCode(CodeCollectionNotFound)
}

// HasCode reports whether err carries the given code
func HasCode(err error, code string) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Code == code
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(resource, message string) error {
	return &CustomError{
		Err:        ErrConflict,
		Message:    message,
		Resource:   resource,
		StatusCode: 409,
	}
}

// NewValidationError creates a validation error with no field messages yet
func NewValidationError(resource, message string) *CustomError {
	return &CustomError{
		Err:      ErrValidation,
		Message:  message,
		Resource: resource,
	}
}

// FieldErrors extracts per-field messages from err, if any
func FieldErrors(err error) map[string][]string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Fields
	}
	return nil
}

// IsRetryable reports whether an idempotent request may be retried after err
func IsRetryable(err error) bool {
	return Is(err, ErrNetwork, ErrServer)
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}
