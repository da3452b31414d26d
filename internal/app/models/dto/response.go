package dto

import "time"

// ListResponse is the backend envelope for a collection read
type ListResponse[T any] struct {
	Data       []T             `json:"data"`
	Total      int64           `json:"total"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// DataResponse is the backend envelope for single-record reads and writes
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// APIResponse is the console's own response envelope
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewAPIResponse wraps data in a successful envelope
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// PaginationInfo describes the slice of a collection a list read returned
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}

// Option is an id/label pair for selection controls
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}
