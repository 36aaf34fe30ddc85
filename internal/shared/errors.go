package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates an unknown or expired API token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is the category of every authorization denial.
	ErrForbidden = errors.New("forbidden")
	// ErrLoginRequired is the category of denials for anonymous callers.
	ErrLoginRequired = errors.New("login required")
)

// ValidationError carries a user facing message for rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// DuplicateError carries a user facing message for uniqueness violations.
type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrDuplicate.
func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// NewDuplicateError builds a DuplicateError with the given message.
func NewDuplicateError(message string) error {
	return &DuplicateError{Message: message}
}

// UserSafeMessage returns the part of err that may be shown to API clients.
func UserSafeMessage(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var dErr *DuplicateError
	if errors.As(err, &dErr) {
		return dErr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "Resource not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid Credentials."
	case errors.Is(err, ErrInvalidToken):
		return "Invalid token."
	}
	return "An unexpected error occurred."
}
