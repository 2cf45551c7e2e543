// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrTokenExpired        = errors.New("token expired")
	ErrTokenInvalid        = errors.New("token invalid")
	ErrTokenRevoked        = errors.New("token revoked")
	ErrOTPExpired          = errors.New("otp expired")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrResetPassword       = errors.New("password reset required")
	ErrGateway             = errors.New("payment gateway error")
)

// AppError is an error that is safe to show to API clients.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error() + ": " + e.Message
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(message string) *AppError {
	if message == "" {
		message = "Document not found or inaccessible"
	}
	return NewAppError(ErrNotFound, message, http.StatusNotFound, "NOT_FOUND")
}

func AlreadyExistsError(message string) *AppError {
	return NewAppError(
		ErrAlreadyExists,
		message,
		http.StatusConflict,
		"ALREADY_EXISTS",
	)
}

func DuplicateError(field string) *AppError {
	return AlreadyExistsError(field + " already exists")
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrValidation,
		message,
		http.StatusUnprocessableEntity,
		"VALIDATION_ERROR",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "Could not validate credentials"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "You do not have the required privileges"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"Could not validate credentials",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"Could not validate credentials",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"Token revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func OTPExpiredError() *AppError {
	return NewAppError(ErrOTPExpired, "OTP has expired", http.StatusGone, "OTP_EXPIRED")
}

func OTPAttemptsExceededError() *AppError {
	return NewAppError(
		ErrOTPAttemptsExceeded,
		"Too many incorrect attempts",
		http.StatusTooManyRequests,
		"OTP_ATTEMPTS_EXCEEDED",
	)
}

func InvalidOTPError() *AppError {
	return NewAppError(ErrInvalidOTP, "Invalid OTP", http.StatusForbidden, "INVALID_OTP")
}

// ResetPasswordError is not a failure: clients route the user to the
// password reset flow when they see it.
func ResetPasswordError() *AppError {
	return NewAppError(
		ErrResetPassword,
		"Please reset your password.",
		http.StatusAccepted,
		"RESET_PASSWORD",
	)
}

// StatusFor maps an error to the single status code the API reports for it.
func StatusFor(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrInvalidOTP):
		return http.StatusForbidden
	case errors.Is(err, ErrOTPExpired):
		return http.StatusGone
	case errors.Is(err, ErrOTPAttemptsExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrResetPassword):
		return http.StatusAccepted
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
