package dto

import (
	"fmt"
	"sort"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	ErrorCodeRecordNotFound     ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodeCollectionNotFound ErrorCode = "COLLECTION_NOT_FOUND"
	ErrorCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrorCodeConflict           ErrorCode = "CONFLICT"
	ErrorCodeSubmitInFlight     ErrorCode = "SUBMIT_IN_FLIGHT"
	ErrorCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrorCodeBackendDown        ErrorCode = "BACKEND_UNREACHABLE"
	ErrorCodeBackendError       ErrorCode = "BACKEND_ERROR"
	ErrorCodeInternalServer     ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code    ErrorCode   `json:"code,omitempty"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse is the error body shared by the backend and the console
type ErrorResponse struct {
	Success   bool          `json:"success"`
	Error     *ErrorDetail  `json:"error"`
	Errors    []ErrorDetail `json:"errors,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:    code,
		Message: message,
	}
}

// WithField adds a field name to the error detail
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithDetails adds additional details to the error
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// WithDetailf adds a formatted detail string
func (e *ErrorDetail) WithDetailf(format string, args ...interface{}) *ErrorDetail {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}

// WithFieldErrors appends one entry per field message, in field order
func (r *ErrorResponse) WithFieldErrors(fields map[string][]string) *ErrorResponse {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, msg := range fields[name] {
			r.Errors = append(r.Errors, ErrorDetail{
				Code:    ErrorCodeValidationFailed,
				Message: msg,
				Field:   name,
			})
		}
	}
	return r
}

// FieldMessages folds Errors back into a field → messages map
func (r *ErrorResponse) FieldMessages() map[string][]string {
	if len(r.Errors) == 0 {
		return nil
	}
	fields := make(map[string][]string, len(r.Errors))
	for _, e := range r.Errors {
		if e.Field == "" {
			continue
		}
		fields[e.Field] = append(fields[e.Field], e.Message)
	}
	return fields
}
