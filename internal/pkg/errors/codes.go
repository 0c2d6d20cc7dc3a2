package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes
const (
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer  = 1000
	ErrInvalidParams   = 1001
	ErrNotFound        = 1002
	ErrBadRequest      = 1003
	ErrTooManyRequests = 1004
	ErrServiceUnavail  = 1005

	// Search errors (2000-2999)
	ErrUnknownSearchType = 2000
	ErrExportEmpty       = 2001
	ErrExportFailed      = 2002
	ErrTitleRequired     = 2003
	ErrNoSignificantTerm = 2004

	// Upstream errors (3000-3999)
	ErrUpstream = 3000
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer:  {ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	ErrInvalidParams:   {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:        {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrBadRequest:      {ErrBadRequest, http.StatusBadRequest, "Bad request"},
	ErrTooManyRequests: {ErrTooManyRequests, http.StatusTooManyRequests, "Too many requests"},
	ErrServiceUnavail:  {ErrServiceUnavail, http.StatusServiceUnavailable, "Service unavailable"},

	ErrUnknownSearchType: {ErrUnknownSearchType, http.StatusBadRequest, "Invalid search type"},
	ErrExportEmpty:       {ErrExportEmpty, http.StatusBadRequest, "No results or search parameters provided for export"},
	ErrExportFailed:      {ErrExportFailed, http.StatusBadRequest, "Failed to retrieve results for export"},
	ErrTitleRequired:     {ErrTitleRequired, http.StatusBadRequest, "Title is required"},
	ErrNoSignificantTerm: {ErrNoSignificantTerm, http.StatusBadRequest, "Title has no significant words"},

	ErrUpstream: {ErrUpstream, http.StatusBadGateway, "API error"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
