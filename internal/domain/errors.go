package domain

import "errors"

var (
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrInvalidGuestCount   = errors.New("guest count must be at least 1")
	ErrEmptySelection      = errors.New("no rooms selected")
	ErrRoomUnavailable     = errors.New("room unavailable")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidPolicy       = errors.New("invalid discount policy")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")

	// ErrTransient marks storage or network failures that are safe to retry
	// with backoff. It never wraps one of the domain errors above.
	ErrTransient = errors.New("transient failure")
)

type transientError struct{ err error }

func (e *transientError) Error() string        { return "transient failure: " + e.err.Error() }
func (e *transientError) Unwrap() error        { return e.err }
func (e *transientError) Is(target error) bool { return target == ErrTransient }

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}
