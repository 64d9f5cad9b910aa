package apierror

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so callers can use errors.Is against a
// constructor's result regardless of the message text.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// ToJSON converts the error to the standard response body.
func (e *Error) ToJSON() []byte {
	response := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
		},
	}

	data, _ := json.Marshal(response)
	return data
}

// CodeOf returns the error code if err is an *Error, empty string otherwise.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
	}
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	if message == "" {
		message = "Authentication required"
	}
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

// Forbidden creates a 403 Forbidden error.
func Forbidden(message string) *Error {
	if message == "" {
		message = "Access denied"
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	if message == "" {
		message = "Resource not found"
	}
	return &Error{
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    message,
	}
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *Error {
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return &Error{
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
	}
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	return &Error{
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    message,
	}
}

// NotVerified creates a 403 error for trade operations attempted before the
// requester has linked a Roblox account.
func NotVerified(message string) *Error {
	if message == "" {
		message = "Roblox account not verified. Use !verify <username> first."
	}
	return &Error{
		StatusCode: http.StatusForbidden,
		Code:       "NOT_VERIFIED",
		Message:    message,
	}
}

// AlreadyLinked creates a 409 error for a Roblox account that is already
// verified under a different Discord identity.
func AlreadyLinked(message string) *Error {
	if message == "" {
		message = "This Roblox account is already linked to another Discord user"
	}
	return &Error{
		StatusCode: http.StatusConflict,
		Code:       "ALREADY_LINKED",
		Message:    message,
	}
}

// VerificationMismatch creates a 400 error for a verification code that was
// not found in the user's profile bio. Retryable by user action.
func VerificationMismatch(message string) *Error {
	if message == "" {
		message = "Verification code not found in bio. Make sure you saved your profile, then allow 1-2 minutes for propagation."
	}
	return &Error{
		StatusCode: http.StatusBadRequest,
		Code:       "VERIFICATION_MISMATCH",
		Message:    message,
	}
}

// SignatureInvalid creates a 401 error for signed-payload rejections.
// The message stays generic on purpose; the real reason is only logged.
func SignatureInvalid() *Error {
	return &Error{
		StatusCode: http.StatusUnauthorized,
		Code:       "SIGNATURE_INVALID",
		Message:    "Request could not be authenticated",
	}
}
