package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the failure class. Handlers map codes to HTTP statuses
// through StatusOf instead of pattern-matching error text.
const (
	CodeProviderAuth      = "provider_auth"
	CodeRateLimited       = "rate_limited"
	CodeProviderError     = "provider_error"
	CodeParseError        = "parse_error"
	CodeValidationError   = "validation_error"
	CodeInvalidInput      = "invalid_input"
	CodeNamespaceNotFound = "namespace_not_found"
	CodeEmptyOCR          = "empty_ocr"
	CodeMissingFile       = "missing_file"
)

var statusByCode = map[string]int{
	CodeProviderAuth:      http.StatusUnauthorized,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeProviderError:     http.StatusInternalServerError,
	CodeParseError:        http.StatusInternalServerError,
	CodeValidationError:   http.StatusInternalServerError,
	CodeInvalidInput:      http.StatusBadRequest,
	CodeNamespaceNotFound: http.StatusBadRequest,
	CodeEmptyOCR:          http.StatusBadRequest,
	CodeMissingFile:       http.StatusBadRequest,
}

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithCode builds an Error whose status comes from the code table.
func WithCode(code string, err error) *Error {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &Error{Status: status, Code: code, Err: err}
}

// StatusOf resolves the HTTP status for any error. Untagged errors are 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// CodeOf returns the tagged code, or "internal_error" for untagged errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal_error"
}
