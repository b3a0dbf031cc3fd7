// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
	"net/http"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrBrowserCrash    = errors.New("browser crashed")
	ErrNetworkError    = errors.New("network error")
	ErrParseError      = errors.New("failed to parse response")
	ErrNotStructured   = errors.New("response is not structured JSON")
	ErrNeedsJavaScript = errors.New("page requires JavaScript rendering")
	ErrNoStrategies    = errors.New("no retrieval strategies configured")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNotStructured   ErrorCode = "NOT_STRUCTURED"
	ErrCodeParseError      ErrorCode = "PARSE_ERROR"
	ErrCodeHTTPStatus      ErrorCode = "HTTP_STATUS"
	ErrCodeNeedsJavaScript ErrorCode = "NEEDS_JAVASCRIPT"
	ErrCodeNetworkError    ErrorCode = "NETWORK_ERROR"
	ErrCodeBrowserCrash    ErrorCode = "BROWSER_CRASH"
)

// fallbackCodes are recovered by moving to the next strategy.
var fallbackCodes = map[ErrorCode]bool{
	ErrCodeNotStructured:   true,
	ErrCodeParseError:      true,
	ErrCodeHTTPStatus:      true,
	ErrCodeNeedsJavaScript: true,
}

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// IsFallback reports whether err should move the ladder to its next strategy.
func IsFallback(err error) bool {
	var ee *EngineError
	if errors.As(err, &ee) {
		return fallbackCodes[ee.Code]
	}
	return false
}

// StatusCoder is an interface for errors that provide an HTTP status code
type StatusCoder interface {
	GetStatusCode() int
}

// HTTPError represents a non-success upstream response
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

func (e HTTPError) GetStatusCode() int {
	return e.StatusCode
}

// StatusError builds the fallback-class error for a non-2xx response.
func StatusError(statusCode int, url string) *EngineError {
	return NewEngineError(ErrCodeHTTPStatus, "upstream returned non-success status", HTTPError{StatusCode: statusCode, URL: url}).
		WithDetail("status", statusCode)
}
