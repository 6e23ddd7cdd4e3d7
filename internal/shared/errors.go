package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrUnauthenticated   = fmt.Errorf("unauthenticated")
	ErrNotConnected      = fmt.Errorf("session not connected")
	ErrTokenExpired      = fmt.Errorf("access token expired")
	ErrRefreshFailed     = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken    = fmt.Errorf("no refresh token available")
	ErrLoginAbandoned    = fmt.Errorf("login abandoned")
	ErrTooManyAttempts   = fmt.Errorf("retry attempts exhausted")
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrTransport         = fmt.Errorf("transport error")
	ErrFatal             = fmt.Errorf("fatal resource failure")
	ErrEngineUnavailable = fmt.Errorf("playback engine unavailable")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind classifies failures surfaced by the auth layer.
type ErrorKind int

const (
	KindUnauthenticated ErrorKind = iota
	KindRateLimited
	KindTransport
	KindFatal
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindTransport:
		return "transport"
	case KindFatal:
		return "fatal"
	default:
		return ""
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindRateLimited:
		return ErrRateLimited
	case KindTransport:
		return ErrTransport
	default:
		return ErrFatal
	}
}

// AuthError carries an [ErrorKind] and the operation that failed.
//
// errors.Is matches both the kind's sentinel (e.g. [ErrUnauthenticated]) and the wrapped cause.
type AuthError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewAuthError wraps err as an [AuthError] of the given kind.
func NewAuthError(kind ErrorKind, op string, err error) *AuthError {
	return &AuthError{Kind: kind, Op: op, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind.sentinel(), e.Err)
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// KindOf reports the [ErrorKind] of err, falling back to [KindTransport] for foreign errors.
func KindOf(err error) ErrorKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrFatal):
		return KindFatal
	}
	return KindTransport
}
