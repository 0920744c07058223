package service

import (
	"fmt"
	"net/http"
)

// AuthError is a client-visible failure with a stable code and HTTP status.
// Anything else that escapes the service is mapped to a generic server error
// at the handler boundary.
type AuthError struct {
	Code    string
	Message string
	Status  int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAuthError(code, message string, status int) *AuthError {
	return &AuthError{Code: code, Message: message, Status: status}
}

func errValidation(message string) *AuthError {
	return newAuthError("validation_error", message, http.StatusBadRequest)
}

func errConflict() *AuthError {
	return newAuthError("conflict", "User already exists.", http.StatusBadRequest)
}

// errInvalidCredentials is deliberately identical for unknown email and wrong
// password, so responses cannot be used as a user-existence oracle.
func errInvalidCredentials() *AuthError {
	return newAuthError("invalid_credentials", "Invalid credentials.", http.StatusBadRequest)
}

func errInvalidOrExpired(message string) *AuthError {
	return newAuthError("invalid_or_expired", message, http.StatusBadRequest)
}

func errNotFound() *AuthError {
	return newAuthError("not_found", "User not found.", http.StatusBadRequest)
}
