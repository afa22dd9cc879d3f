package apperror

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackc/pgerrcode"
)

// Kind classifies an error for callers independent of its message.
type Kind string

const (
	KindInvalidRequest          Kind = "invalid_request"
	KindNotFound                Kind = "not_found"
	KindPermissionDenied        Kind = "permission_denied"
	KindResourceUnavailable     Kind = "resource_unavailable"
	KindPromotionNotFound       Kind = "promotion_not_found"
	KindPromotionInactive       Kind = "promotion_inactive"
	KindPromotionExpired        Kind = "promotion_expired"
	KindIllegalTransition       Kind = "illegal_transition"
	KindNoOpTransition          Kind = "noop_transition"
	KindConcurrentModification  Kind = "concurrent_modification"
	KindCodeGenerationExhausted Kind = "code_generation_exhausted"
	KindTimeout                 Kind = "timeout"
	KindPersistenceFailure      Kind = "persistence_failure"
)

// AppError is a custom error type that includes an HTTP status code, an error kind
// and an optional wrapped cause.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Machine readable classification
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind and message,
// so wrapped instances still match the package-level sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// New creates a new AppError with a status code, kind and message.
func New(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Shared sentinels used across modules.
var (
	ErrConcurrentModification = New(http.StatusConflict, KindConcurrentModification, "resource was modified concurrently, retry")
	ErrTimeout                = New(http.StatusServiceUnavailable, KindTimeout, "operation timed out, retry later")
	ErrPersistence            = New(http.StatusInternalServerError, KindPersistenceFailure, "persistence failure")
)

// Persistence wraps an opaque lower-layer failure. Deadlines and cancelled
// statements become Timeout, including ones already wrapped as persistence
// failures. Any other error that carries a kind is returned unchanged.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindPersistenceFailure {
		return err
	}
	if IsTimeout(err) {
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Kind, ErrTimeout.Message)
	}
	if appErr != nil {
		return err
	}
	return Wrap(err, ErrPersistence.Code, ErrPersistence.Kind, ErrPersistence.Message)
}

// IsTimeout reports whether err was caused by an expired deadline or a
// statement cancelled by the database (SQLSTATE 57014).
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var coded interface{ SQLState() string }
	return errors.As(err, &coded) && coded.SQLState() == pgerrcode.QueryCanceled
}

// KindOf returns the kind of err, or KindPersistenceFailure for untyped errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistenceFailure
}

// IsOperational reports whether err must always be logged server-side.
func IsOperational(err error) bool {
	switch KindOf(err) {
	case KindPersistenceFailure, KindCodeGenerationExhausted:
		return true
	}
	return false
}
