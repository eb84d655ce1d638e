package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrIntegrity marks data-integrity violations: a post id that does not
// resolve to exactly one post, or a user row that vanished after upsert.
// These surface as 500 and are never auto-resolved.
var ErrIntegrity = stderrors.New("data integrity violation")

// CodeError is a request rejection carrying one or more client error codes.
type CodeError struct {
	Codes  []ErrorCode
	Status int
}

// Error implements the error interface
func (e *CodeError) Error() string {
	parts := make([]string, len(e.Codes))
	for i, code := range e.Codes {
		parts[i] = string(code)
	}
	return fmt.Sprintf("request rejected (%d): %s", e.Status, strings.Join(parts, ","))
}

// New creates a CodeError for the given codes. The status follows the first
// code; an empty list is treated as an unexpected server error.
func New(codes ...ErrorCode) *CodeError {
	if len(codes) == 0 {
		codes = []ErrorCode{ErrUnexpectedServerError}
	}
	return &CodeError{
		Codes:  codes,
		Status: codes[0].StatusCode(),
	}
}

// BadRequest creates a 400 error carrying every collected validation code
func BadRequest(codes ...ErrorCode) *CodeError {
	if len(codes) == 0 {
		codes = []ErrorCode{ErrParsingRequest}
	}
	return &CodeError{Codes: codes, Status: http.StatusBadRequest}
}

// ParseError is the generic request-shape rejection.
func ParseError() *CodeError {
	return BadRequest(ErrParsingRequest)
}

// Internal is the body returned for every 5xx.
func Internal() *CodeError {
	return &CodeError{
		Codes:  []ErrorCode{ErrUnexpectedServerError},
		Status: http.StatusInternalServerError,
	}
}

// Codes extracts the client codes for err. Errors that are not a CodeError
// collapse to unexpected_server_error.
func Codes(err error) []ErrorCode {
	var codeErr *CodeError
	if stderrors.As(err, &codeErr) {
		return codeErr.Codes
	}
	return []ErrorCode{ErrUnexpectedServerError}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	var codeErr *CodeError
	if stderrors.As(err, &codeErr) {
		return codeErr.Status
	}
	return http.StatusInternalServerError
}
