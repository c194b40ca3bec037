package codes

import "errors"

var (
	// ErrEmptyCode is returned by Register-style calls that receive an empty
	// code string.
	ErrEmptyCode = errors.New("empty response code")

	// ErrReadingCodesFile wraps failures to read or decode a codes file.
	ErrReadingCodesFile = errors.New("error reading codes file")
)
