package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
)

// Code identifies an API failure class. Codes are stable strings the UI
// layer can localize; raw server messages are kept for logs only.
type Code string

const (
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUserInactive       Code = "USER_INACTIVE"
	CodeEmailServiceError  Code = "EMAIL_SERVICE_ERROR"
	CodeInvalidCode        Code = "INVALID_CODE"
	CodeCodeExpired        Code = "CODE_EXPIRED"
	CodeNetworkError       Code = "NETWORK_ERROR"
	CodeServerError        Code = "SERVER_ERROR"
	CodeConnectionRefused  Code = "CONNECTION_REFUSED"
)

// TranslationKey returns the lower-cased dotted form used for
// localization, e.g. "error.invalid_credentials".
func (c Code) TranslationKey() string {
	return "error." + strings.ToLower(string(c))
}

// Error is a classified API failure.
type Error struct {
	// Status is the HTTP status, or 0 when no response was received.
	Status int

	// Code is the classified failure code.
	Code Code

	// Message is the raw server message. Never shown to end users.
	Message string

	// Cause is the underlying transport or decode error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode extracts the classified code from any error. Unclassified
// errors map to SERVER_ERROR so callers always have a stable code.
func ErrorCode(err error) Code {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeServerError
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return ErrorCode(err) == code
}

// serverError is the structured error body the platform returns.
type serverError struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s serverError) text() string {
	if s.Message != "" {
		return s.Message
	}
	return s.Error
}

// classifyTransport maps a failed round trip (no HTTP response) to a code.
func classifyTransport(err error) *Error {
	code := CodeNetworkError
	if errors.Is(err, syscall.ECONNREFUSED) {
		code = CodeConnectionRefused
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Cancellation is still surfaced as a network-class failure so the
		// store's boolean convention holds, but the cause stays inspectable.
		code = CodeNetworkError
	}
	return &Error{Code: code, Message: "request failed", Cause: err}
}

// classifyResponse maps a non-2xx HTTP response to a code.
//
// Policy: a structured server code wins; a bare 401 means bad
// credentials; 503 is the email-service path; anything else >= 500 is a
// generic server failure.
func classifyResponse(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var srv serverError
	if err := json.Unmarshal(body, &srv); err == nil && srv.Code != "" {
		return &Error{
			Status:  resp.StatusCode,
			Code:    Code(srv.Code),
			Message: srv.text(),
		}
	}

	var code Code
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		code = CodeInvalidCredentials
	case resp.StatusCode == http.StatusServiceUnavailable:
		code = CodeEmailServiceError
	default:
		code = CodeServerError
	}

	msg := srv.text()
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	return &Error{Status: resp.StatusCode, Code: code, Message: msg}
}
