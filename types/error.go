package types

import "fmt"

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Fetch and transport error codes
const (
	ErrNetworkFailure ErrorCode = "NETWORK_FAILURE"
	ErrTimeout        ErrorCode = "TIMEOUT"
	ErrHTTPStatus     ErrorCode = "HTTP_STATUS"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrExtractFailed  ErrorCode = "EXTRACT_FAILED"
)

// Gathering error codes
const (
	ErrContentRejected ErrorCode = "CONTENT_REJECTED"
	ErrNoCandidates    ErrorCode = "NO_CANDIDATES"
	ErrAllFailed       ErrorCode = "ALL_FAILED"
)

// Caller-contract error codes
const (
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrSearchFailed    ErrorCode = "SEARCH_FAILED"
	ErrCacheFailed     ErrorCode = "CACHE_FAILED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	URL        string    `json:"url,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithURL attaches the URL the error relates to.
func (e *Error) WithURL(url string) *Error {
	e.URL = url
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
