package apperror

import (
	"errors"
	"net/http"
)

// Sentinel errors for the expected failure classes. Services wrap these
// with fmt.Errorf("%w: ...") so handlers can map them with errors.Is.
var (
	// ErrValidation marks bad input shape or values; no state change.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks a role or state precondition violation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks an absent request, article, buyer, or user.
	ErrNotFound = errors.New("not found")
	// ErrDependency marks an unavailable store or notifier.
	ErrDependency = errors.New("dependency unavailable")
)

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDependency):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
