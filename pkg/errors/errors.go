// Package errors provides structured error handling for tap-postmark
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeRateLimit represents rate limit errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeState represents bookmark persistence errors
	ErrorTypeState ErrorType = "state"

	// ErrorTypeConversion is returned when a value cannot be coerced to
	// the type declared by its field rule.
	ErrorTypeConversion ErrorType = "conversion"
	// ErrorTypeMissingField signals that a payload lacks a key its schema declares.
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeInvalidDate is returned for start dates and day cursors that
	// are not YYYY-MM-DD.
	ErrorTypeInvalidDate ErrorType = "invalid_date"
	// ErrorTypeMalformedResponse covers non-JSON or unexpectedly shaped API bodies.
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	// ErrorTypeHTTP represents a 4xx/5xx answer from the remote API
	ErrorTypeHTTP ErrorType = "http"
)

// Detail keys shared across packages.
const (
	DetailStatusCode = "status_code"
	DetailStream     = "stream"
	DetailDay        = "day"
	DetailField      = "field"
	DetailValue      = "value"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a format string.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable. HTTP errors are
// retryable only for 429 and 5xx answers.
func IsRetryable(err error) bool {
	for e := range chain(err) {
		switch e.Type {
		case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeConnection:
			return true
		case ErrorTypeHTTP:
			code, _ := e.Details[DetailStatusCode].(int)
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		}
	}
	return false
}

// IsType checks if the error, or any error it wraps, is of the given type
func IsType(err error, errType ErrorType) bool {
	for e := range chain(err) {
		if e.Type == errType {
			return true
		}
	}
	return false
}

// StatusCode returns the HTTP status recorded anywhere in the chain, or 0.
func StatusCode(err error) int {
	for e := range chain(err) {
		if code, ok := e.Details[DetailStatusCode].(int); ok {
			return code
		}
	}
	return 0
}

// chain yields every *Error in err's wrap chain, outermost first.
func chain(err error) func(yield func(*Error) bool) {
	return func(yield func(*Error) bool) {
		for err != nil {
			var e *Error
			if !errors.As(err, &e) {
				return
			}
			if !yield(e) {
				return
			}
			err = e.Cause
		}
	}
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
