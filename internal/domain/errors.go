package domain

import "errors"

// Domain errors
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidScore       = errors.New("invalid score value")
	ErrDuplicateGame      = errors.New("game already exists")
	ErrDuplicateUser      = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInternal           = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrGameNotFound) || errors.Is(err, ErrUserNotFound)
}

// IsConflictError checks if an error reports a uniqueness violation
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDuplicateGame) || errors.Is(err, ErrDuplicateUser)
}

// ErrorCode returns the machine-readable code reported alongside the
// human-readable message in API responses
func ErrorCode(err error) string {
	switch {
	case IsNotFoundError(err):
		return "not_found"
	case IsConflictError(err):
		return "conflict"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidScore):
		return "invalid_argument"
	case errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return "internal"
	}
}
