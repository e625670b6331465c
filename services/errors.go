package services

import (
	"errors"
	"fmt"
	"net/http"

	"filebox/auth"
)

const (
	KindValidation  = "validation_error"
	KindAuth        = "auth_error"
	KindNotFound    = "not_found"
	KindConflict    = "conflict"
	KindIO          = "io_error"
	KindInternal    = "internal_error"
	KindRateLimited = "rate_limited"
)

var (
	ErrMissingFields       = errors.New("required fields are missing")
	ErrDuplicateUsername   = errors.New("username already exists")
	ErrDuplicateEmail      = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTooManyAttempts     = errors.New("too many failed login attempts")
	ErrMalformedHeader     = errors.New("token format invalid")
	ErrTokenSuperseded     = errors.New("refresh token has been superseded")
	ErrUnknownUser         = errors.New("user not found")
	ErrEmptyFilename       = errors.New("no selected file")
	ErrDisallowedExtension = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file exceeds the maximum size")
	ErrEmptyName           = errors.New("new name is required")
	ErrFileNotFound        = errors.New("file not found")
	ErrBlobMissing         = errors.New("file not found on disk")

	ErrMissingToken = auth.ErrTokenMissing
	ErrInvalidToken = auth.ErrTokenMalformed
	ErrTokenExpired = auth.ErrTokenExpired
	ErrWrongKind    = auth.ErrWrongKind
)

// AppError is what services return to handlers. Message is safe to show to
// clients; Err keeps the cause for logs and errors.Is.
type AppError struct {
	HTTPCode int
	Kind     string
	Message  string
	Err      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newAppError(httpCode int, kind string, message string, err error) *AppError {
	return &AppError{HTTPCode: httpCode, Kind: kind, Message: message, Err: err}
}

func validationError(err error) *AppError {
	return newAppError(http.StatusBadRequest, KindValidation, err.Error(), err)
}

func conflictError(err error) *AppError {
	return newAppError(http.StatusBadRequest, KindConflict, err.Error(), err)
}

func authError(err error) *AppError {
	return newAppError(http.StatusUnauthorized, KindAuth, err.Error(), err)
}

func notFoundError(err error) *AppError {
	return newAppError(http.StatusNotFound, KindNotFound, err.Error(), err)
}

func ioError(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, KindIO, message, err)
}

func internalError(message string, err error) *AppError {
	return newAppError(http.StatusInternalServerError, KindInternal, message, err)
}

// tokenError converts a token validation failure. Sentinels become 401s with
// their own message; anything else is an internal failure.
func tokenError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrMissingToken):
		return authError(ErrMissingToken)
	case errors.Is(err, ErrTokenExpired):
		return authError(ErrTokenExpired)
	case errors.Is(err, ErrWrongKind):
		return newAppError(http.StatusUnauthorized, KindAuth, ErrWrongKind.Error(), err)
	case errors.Is(err, ErrTokenSuperseded):
		return authError(ErrTokenSuperseded)
	case errors.Is(err, ErrUnknownUser):
		return authError(ErrUnknownUser)
	case errors.Is(err, ErrInvalidToken):
		return newAppError(http.StatusUnauthorized, KindAuth, ErrInvalidToken.Error(), err)
	default:
		return internalError("token validation failed", err)
	}
}
