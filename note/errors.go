package note

import "errors"

// Error kinds for the canonical note codec.
var (
	ErrMalformedJSON = errors.New("note: malformed json")
	ErrBadFieldType  = errors.New("note: bad field type")
	ErrIDMismatch    = errors.New("note: id mismatch")
	ErrSigInvalid    = errors.New("note: invalid signature")
	ErrTooLarge      = errors.New("note: exceeds maximum note size")
)
