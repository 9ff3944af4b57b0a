package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// RetryableError marks a failure that may succeed if the operation is repeated,
// typically a dropped connection or a serialization conflict in Postgres.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps err with a formatted message and marks it retryable.
func NewRetryable(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return &RetryableError{Err: fmt.Errorf(format, allArgs...)}
}

// FieldError carries one message per rejected request field. It always
// unwraps to ErrValidation.
type FieldError struct {
	Messages []string
}

func (e *FieldError) Error() string {
	if len(e.Messages) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Messages[0])
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// NewFieldError builds a FieldError from the given messages.
func NewFieldError(messages ...string) error {
	return &FieldError{Messages: messages}
}

var (
	ErrNotFound     = errors.New("resource not found")
	ErrValidation   = errors.New("validation failed")
	ErrDatabase     = errors.New("database error")
	ErrNATS         = errors.New("nats communication error")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicate    = errors.New("duplicate resource")
	// ErrConflict covers state conflicts such as an illegal case status transition.
	ErrConflict    = errors.New("resource conflict")
	ErrBadRequest  = errors.New("bad request")
	ErrTimeout     = errors.New("operation timeout")
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream indicates a third-party API (WhatsApp, object storage) failed.
	ErrUpstream = errors.New("upstream service error")
)

func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

func IsNotFoundError(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsValidationError(err error) bool   { return errors.Is(err, ErrValidation) }
func IsNATSError(err error) bool         { return errors.Is(err, ErrNATS) }
func IsUnauthorizedError(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsForbiddenError(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsDuplicateError(err error) bool    { return errors.Is(err, ErrDuplicate) }
func IsConflictError(err error) bool     { return errors.Is(err, ErrConflict) }
func IsBadRequestError(err error) bool   { return errors.Is(err, ErrBadRequest) }
func IsTimeoutError(err error) bool      { return errors.Is(err, ErrTimeout) }
func IsRateLimitedError(err error) bool  { return errors.Is(err, ErrRateLimited) }

// HTTPStatus maps an error chain onto the status code returned to API clients.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFoundError(err):
		return http.StatusNotFound
	case IsValidationError(err), IsBadRequestError(err):
		return http.StatusBadRequest
	case IsUnauthorizedError(err):
		return http.StatusUnauthorized
	case IsForbiddenError(err):
		return http.StatusForbidden
	case IsDuplicateError(err), IsConflictError(err):
		return http.StatusConflict
	case IsRateLimitedError(err):
		return http.StatusTooManyRequests
	case IsTimeoutError(err):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Messages returns the client-facing messages for err. Internal failures
// collapse to the generic status text so database detail never leaks.
func Messages(err error) []string {
	var fe *FieldError
	if errors.As(err, &fe) && len(fe.Messages) > 0 {
		return fe.Messages
	}
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		return []string{http.StatusText(status)}
	}
	return []string{err.Error()}
}
