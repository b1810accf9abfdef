package gateway

import (
	"fmt"
	"net/http"

	"github.com/iliyamo/cinereviews/internal/apperror"
)

// Error is a failure reported by the remote service.  Message is the
// service's own text and is shown to the user verbatim.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Is maps the HTTP status onto the apperror sentinels so callers can use
// errors.Is(err, apperror.ErrConflict) and friends.
func (e *Error) Is(target error) bool {
	switch target {
	case apperror.ErrNotFound:
		return e.Status == http.StatusNotFound
	case apperror.ErrConflict:
		return e.Status == http.StatusConflict
	case apperror.ErrForbidden:
		return e.Status == http.StatusForbidden
	case apperror.ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case apperror.ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// AlreadyRegistered is the service message for a duplicate sign-up.
const AlreadyRegistered = "User already registered"
