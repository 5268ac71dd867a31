package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates that no identity could be resolved for the caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates that the caller is known but not allowed.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates a duplicate key or a referential-integrity violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredential indicates a presented token failed signature, expiry or schema checks.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// Error is a user-facing failure. Message is safe to return to clients and
// Kind is one of the sentinel errors above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

// NotFound builds an ErrNotFound with a client message.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

// Unauthorized builds an ErrUnauthorized with a client message.
func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Message: msg} }

// Forbidden builds an ErrForbidden with a client message.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }

// Conflict builds an ErrConflict with a client message.
func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

// Invalid builds an ErrValidation with a client message.
func Invalid(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }

// UserSafeMessage returns the message of a user-facing error or a generic text.
func UserSafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredential):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrValidation):
		return "validation failed"
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return "invalid csrf token"
	}
	return "internal server error"
}
