package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/shopauth/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeConflict           = "conflict"
	ErrorCodeUnauthenticated    = "unauthenticated"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeProviderDisabled   = "provider_disabled"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeRateLimited        = "rate_limit_exceeded"
	ErrorCodeServerError        = "server_error"
	ErrorCodeUnavailable        = "service_unavailable"
)

// APIError is the error body of every failed request. It implements error
// so the SDK can return it as is, and WriteError so the server can send it.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is a stable, machine readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Fields holds per-field validation messages, keyed by JSON field name
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// WithFields returns a copy of e carrying field-level detail.
func (e *APIError) WithFields(fields map[string]string) *APIError {
	cp := *e
	cp.Fields = fields
	return &cp
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrValidation = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeValidation,
		Description: "one or more fields failed validation",
	}

	// ErrInvalidCredentials is the only answer to a failed sign-in. It must
	// not vary with the reason.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	ErrUserExists = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeConflict,
		Description: "User already exists",
	}

	ErrUnauthenticated = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthenticated,
		Description: "authentication required",
	}

	ErrForbidden = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "access denied",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	ErrProviderDisabled = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeProviderDisabled,
		Description: "sign-in provider is not enabled",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidToken,
		Description: "the token is invalid or has expired",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewValidationError reports field-level validation failures.
func NewValidationError(fields map[string]string) *APIError {
	return ErrValidation.WithFields(fields)
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
