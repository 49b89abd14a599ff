package reading

import "errors"

var (
	// ErrGenerationFailed covers any transport, parse, or schema failure
	// from the generation backend.
	ErrGenerationFailed = errors.New("reading: generation failed")
	// ErrMissingSection is returned when a required narrative field is empty.
	ErrMissingSection = errors.New("reading: missing narrative section")
	// ErrUnknownPalmLine is returned for a line name outside the known four.
	ErrUnknownPalmLine = errors.New("reading: unknown palm line")
	// ErrEmptyPalmLine is returned for a detected line without coordinates.
	ErrEmptyPalmLine = errors.New("reading: palm line without points")
	// ErrPointOutOfRange is returned for a coordinate outside [0,1].
	ErrPointOutOfRange = errors.New("reading: palm point out of range")
	// ErrReadingNotFound is returned when a stored reading does not exist.
	ErrReadingNotFound = errors.New("reading: not found")
	// ErrNilReading is returned when saving a nil reading.
	ErrNilReading = errors.New("reading: nil reading")
	// ErrInvalidLanguage is returned for an unsupported language code.
	ErrInvalidLanguage = errors.New("reading: invalid language")
	// ErrInvalidProfile is returned when the user profile is incomplete.
	ErrInvalidProfile = errors.New("reading: invalid profile")
	// ErrEmptyPalmImage is returned when a palm request carries no image.
	ErrEmptyPalmImage = errors.New("reading: empty palm image")
)
