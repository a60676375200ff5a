package types

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrConfigNotFound       = errors.New("config not found")
	ErrConfigParseFailed    = errors.New("config parse failed")
	ErrConfigValidateFailed = errors.New("config validate failed")
)

var (
	ErrServerNotRunning     = errors.New("server not running")
	ErrServerAlreadyRunning = errors.New("server already running")
	ErrHandlerIsNil         = errors.New("handler is nil")
)

var (
	ErrFilterIsNil           = errors.New("filter is nil")
	ErrFilterOrderDuplicated = errors.New("filter order duplicated")
	ErrFilterChainFinalized  = errors.New("filter chain finalized")
	ErrFilterPatternEmpty    = errors.New("filter url pattern empty")
)

var (
	ErrTokenMissing          = errors.New("token missing")
	ErrTokenExpiredOrInvalid = errors.New("token expired or invalid")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
	ErrApiDisabled           = errors.New("api disabled")
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreClosed      = errors.New("store closed")
	ErrCacheKeyEmpty    = errors.New("cache key empty")
	ErrCacheTypeUnknown = errors.New("cache type unknown")
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user exists")
	ErrBadCredentials       = errors.New("bad credentials")
	ErrUserStoreTypeUnknown = errors.New("user store type unknown")
)

var (
	ErrCronJobNameIsEmpty    = errors.New("cron job name is empty")
	ErrCronJobIsNil          = errors.New("cron job is nil")
	ErrCronExpressionInvalid = errors.New("cron expression invalid")
	ErrCronJobExists         = errors.New("cron job exists")
)

var (
	ErrLogFileIsEmpty     = errors.New("log file is empty")
	ErrLogFileWrongFormat = errors.New("log file wrong format")
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInternalError    = errors.New("internal error")
)

// ErrorKind is the machine readable error category written in failure
// responses.
type ErrorKind string

const (
	KindTokenMissing          ErrorKind = "TokenMissing"
	KindTokenExpiredOrInvalid ErrorKind = "TokenExpiredOrInvalid"
	KindInsufficientPrivilege ErrorKind = "InsufficientPrivilege"
	KindApiDisabled           ErrorKind = "ApiDisabled"
	KindStoreUnavailable      ErrorKind = "StoreUnavailable"
	KindInternalError         ErrorKind = "InternalError"
)

// AuthenticationError is returned by authenticators. It carries the kind,
// the HTTP status and optional error data (the offending token) next to the
// sentinel it wraps.
type AuthenticationError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Data    interface{}
	cause   error
}

func NewAuthenticationError(cause error, message string) *AuthenticationError {
	if cause == nil {
		cause = ErrInternalError
	}

	kind, status := ClassifyError(cause)
	return &AuthenticationError{
		Kind:    kind,
		Status:  status,
		Message: message,
		cause:   pkgerrors.WithStack(cause),
	}
}

func (e *AuthenticationError) WithData(data interface{}) *AuthenticationError {
	e.Data = data
	return e
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %s", e.cause.Error(), e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.cause
}

// StackTrace exposes the stack recorded when the error was created.
func (e *AuthenticationError) StackTrace() pkgerrors.StackTrace {
	if st, ok := e.cause.(interface{ StackTrace() pkgerrors.StackTrace }); ok {
		return st.StackTrace()
	}
	return nil
}

// ClassifyError maps an error chain to its kind and status code. Store
// outages are checked first so they are never reported as authentication
// failures.
func ClassifyError(err error) (ErrorKind, int) {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return KindStoreUnavailable, http.StatusServiceUnavailable
	case errors.Is(err, ErrTokenMissing):
		return KindTokenMissing, http.StatusUnauthorized
	case errors.Is(err, ErrTokenExpiredOrInvalid):
		return KindTokenExpiredOrInvalid, http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientPrivilege):
		return KindInsufficientPrivilege, http.StatusForbidden
	case errors.Is(err, ErrApiDisabled):
		return KindApiDisabled, http.StatusForbidden
	default:
		return KindInternalError, http.StatusInternalServerError
	}
}

func Errorf(baseErr error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", baseErr, fmt.Sprintf(format, args...))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NewErrorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func IsError(err, target error) bool {
	return errors.Is(err, target)
}
