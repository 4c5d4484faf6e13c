package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure the identity core reports wraps exactly one of
// these, so callers branch with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrMFANotEnabled      = errors.New("mfa is not enabled for this account")
	ErrSetupNotInitiated  = errors.New("mfa setup has not been initiated")
	ErrInvalidMFACode     = errors.New("invalid mfa code")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("caller is not authenticated")
)

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidationDetails flattens err into field -> reason for every
// ValidationError it contains, including ones joined with errors.Join.
// The first reason recorded for a field wins.
func ValidationDetails(err error) map[string]string {
	out := map[string]string{}
	collectValidation(err, out)
	return out
}

func collectValidation(err error, out map[string]string) {
	if err == nil {
		return
	}
	if ve, ok := err.(*ValidationError); ok {
		if _, seen := out[ve.Field]; !seen {
			out[ve.Field] = ve.Reason
		}
		return
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			collectValidation(e, out)
		}
	case interface{ Unwrap() error }:
		collectValidation(u.Unwrap(), out)
	}
}
