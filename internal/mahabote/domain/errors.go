package mahabote

import "errors"

var (
	// ErrInvalidDate is returned when a date maps to no classification slot.
	ErrInvalidDate = errors.New("mahabote: invalid date")
	// ErrZeroDate is returned when the birth date is the zero time.
	ErrZeroDate = errors.New("mahabote: zero birth date")
)
