package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

// Closed error taxonomy of the adapter boundary. No bank-specific error type
// crosses this boundary; adapters translate everything into one of these.
const (
	ErrConsentRequired              ErrorCode = "CONSENT_REQUIRED"
	ErrConsentAuthorisationRequired ErrorCode = "CONSENT_AUTHORISATION_REQUIRED"
	ErrInvalidConsent               ErrorCode = "INVALID_CONSENT"
	ErrInvalidPin                   ErrorCode = "INVALID_PIN"
	ErrResourceNotFound             ErrorCode = "RESOURCE_NOT_FOUND"
	ErrInvalidAccountReference      ErrorCode = "INVALID_ACCOUNT_REFERENCE"
	ErrUnsupportedOperation         ErrorCode = "UNSUPPORTED_OPERATION"
	ErrInvalidState                 ErrorCode = "INVALID_STATE"
	ErrProtocolError                ErrorCode = "PROTOCOL_ERROR"
	ErrInternalServer               ErrorCode = "INTERNAL_ERROR"
)

type APIError struct {
	Code     ErrorCode   `json:"code"`
	Status   int         `json:"status"`
	Message  string      `json:"message"`
	Messages []string    `json:"messages,omitempty"`
	Details  interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.Error(details)
	}
	return APIError{
		Code:    code,
		Status:  defaultStatus(code),
		Message: message,
		Details: details,
	}
}

// NewBankError builds an APIError carrying the HTTP-like status and the
// human-readable messages the bank returned, already mapped to a taxonomy
// code by the calling adapter.
func NewBankError(code ErrorCode, status int, message string, messages ...string) APIError {
	if status == 0 {
		status = defaultStatus(code)
	}
	return APIError{
		Code:     code,
		Status:   status,
		Message:  message,
		Messages: messages,
	}
}

// Is lets callers match against the taxonomy code with errors.Is.
func (e APIError) Is(target error) bool {
	var other APIError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// CodeOf extracts the taxonomy code from an error, ErrInternalServer when the
// error is not an APIError.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

func defaultStatus(code ErrorCode) int {
	switch code {
	case ErrConsentRequired, ErrConsentAuthorisationRequired:
		return http.StatusForbidden
	case ErrInvalidConsent:
		return http.StatusTooManyRequests
	case ErrInvalidPin:
		return http.StatusUnauthorized
	case ErrResourceNotFound:
		return http.StatusNotFound
	case ErrInvalidAccountReference, ErrInvalidState:
		return http.StatusBadRequest
	case ErrUnsupportedOperation:
		return http.StatusNotImplemented
	case ErrProtocolError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status != 0 {
			return apiErr.Status
		}
		return defaultStatus(apiErr.Code)
	}
	return http.StatusInternalServerError
}
