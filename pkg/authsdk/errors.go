package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
)

// APIError is a failure returned by the API. It is written by the server
// and parsed back by the client.
type APIError struct {
	StatusCode int
	Header     string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Header, e.Message)
}

// Is matches errors with the same status and message, so a parsed error
// compares equal to the predefined one it was written from.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

// WriteError writes e as an error envelope.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteError(w, e.StatusCode, e.Header, e.Message)
}

// NewAPIError creates an APIError for cases the predefined errors miss.
func NewAPIError(statusCode int, header, message string) *APIError {
	return &APIError{StatusCode: statusCode, Header: header, Message: message}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Header:     httpx.HeaderValidationError,
		Message:    "the request is malformed or missing required fields",
	}

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so login does not reveal which accounts exist.
	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Header:     httpx.HeaderAuthError,
		Message:    "invalid email or password",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Header:     httpx.HeaderAuthError,
		Message:    "the token is invalid, expired or revoked",
	}

	// ErrTokenExpired lets clients tell an expired refresh token apart and
	// send the user back to login.
	ErrTokenExpired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Header:     httpx.HeaderAuthError,
		Message:    "token expired",
	}

	ErrTokenAlreadyInvalidated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Header:     httpx.HeaderAuthError,
		Message:    "token is already invalidated",
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Header:     httpx.HeaderNotFound,
		Message:    "user not found",
	}

	ErrUserStatusNotValid = &APIError{
		StatusCode: http.StatusForbidden,
		Header:     httpx.HeaderAuthError,
		Message:    "user status is not valid",
	}

	ErrUserAlreadyExists = &APIError{
		StatusCode: http.StatusConflict,
		Header:     httpx.HeaderAlreadyExist,
		Message:    "user already exists",
	}

	ErrAccessDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Header:     httpx.HeaderAuthError,
		Message:    "access denied",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Header:     httpx.HeaderAPIError,
		Message:    "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Header:     errResp.Header,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Header:     httpx.HeaderAPIError,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
