package application

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds. Handlers map these to HTTP status codes with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrPersistence    = errors.New("storage failure")
	// ErrUnavailable is returned when an optional backend is not configured.
	ErrUnavailable = errors.New("feature not configured")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)
	ErrAccountInactive    = fmt.Errorf("%w: account is deactivated", ErrAuthentication)
	ErrSessionRevoked     = fmt.Errorf("%w: session is no longer valid", ErrAuthentication)
	ErrWrongPassword      = fmt.Errorf("%w: current password is incorrect", ErrAuthentication)
	ErrNotAdmin           = fmt.Errorf("%w: admin access required", ErrAuthorization)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrRecordNotFound     = fmt.Errorf("%w: health record not found", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrWeakPassword       = fmt.Errorf("%w: password must be at least 8 characters and contain an uppercase letter, a digit and one of !@#$%%^&*", ErrValidation)
)

func persistence(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// validID reports whether id is a canonical UUID. Anything else cannot name a
// stored row and is answered as not found without a database round trip.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
