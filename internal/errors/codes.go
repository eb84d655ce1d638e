package errors

import "net/http"

// ErrorCode is a client-facing error identifier. Clients localize these; the
// server never sends human-readable messages for them.
type ErrorCode string

const (
	ErrExceedPostCreationLimit ErrorCode = "exceed_post_creation_limit"
	ErrExceedResponseLimit     ErrorCode = "exceed_response_limit"
	ErrParsingRequest          ErrorCode = "error_parsing_request"
	ErrInvalidEmail            ErrorCode = "invalid_email"
	ErrPostResponded           ErrorCode = "post_responded"
	ErrInvalidAge              ErrorCode = "invalid_age"
	ErrExceedMaxLocationChars  ErrorCode = "exceed_max_location_characters_number"
	ErrExceedMaxNarrationChars ErrorCode = "exceed_max_narration_characters_number"
	ErrExceedMaxQuestionChars  ErrorCode = "exceed_max_question_characters_number"
	ErrExceedMaxAnswerChars    ErrorCode = "exceed_max_answer_characters_number"
	ErrEmptyNarration          ErrorCode = "empty_narration"
	ErrUnexpectedServerError   ErrorCode = "unexpected_server_error"
)

// AllCodes lists the closed set of codes in a stable order.
var AllCodes = []ErrorCode{
	ErrExceedPostCreationLimit,
	ErrExceedResponseLimit,
	ErrParsingRequest,
	ErrInvalidEmail,
	ErrPostResponded,
	ErrInvalidAge,
	ErrExceedMaxLocationChars,
	ErrExceedMaxNarrationChars,
	ErrExceedMaxQuestionChars,
	ErrExceedMaxAnswerChars,
	ErrEmptyNarration,
	ErrUnexpectedServerError,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if e == ErrUnexpectedServerError {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// Valid reports whether e belongs to the closed enumeration.
func (e ErrorCode) Valid() bool {
	for _, code := range AllCodes {
		if code == e {
			return true
		}
	}
	return false
}
