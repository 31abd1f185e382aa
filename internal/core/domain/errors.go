package domain

import "errors"

// Error kinds returned by the membership core. Services wrap them with
// context via fmt.Errorf("%w: ...") so callers match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
)
