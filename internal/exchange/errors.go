package exchange

import "errors"

// The error taxonomy every denial maps onto. Each failure names exactly one
// of these so callers and tests can assert on it with errors.Is.
var (
	ErrForbidden         = errors.New("exchange: forbidden")
	ErrInvalidTransition = errors.New("exchange: invalid status transition")
	ErrMissingResolution = errors.New("exchange: resolution text is required")
	ErrNotFound          = errors.New("exchange: not found")
	ErrAlreadyExists     = errors.New("exchange: already exists")
	ErrInvalidInput      = errors.New("exchange: invalid input")
)
