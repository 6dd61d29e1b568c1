package core

import "errors"

var (
	// ErrMissingInput is returned when the target or source table is absent.
	// Nothing is processed and no partial output is produced.
	ErrMissingInput = errors.New("missing input table")

	// ErrInvalidLayout is returned when a Layout has unusable offsets.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrNoFiles is returned when a merge is requested without any input.
	ErrNoFiles = errors.New("no file provided")

	// ErrRunNotFound is returned when a run result has expired or never existed.
	ErrRunNotFound = errors.New("run not found")
)

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingInput) ||
		errors.Is(err, ErrInvalidLayout) ||
		errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrTooManyFiles)
}

// ErrTooManyFiles is returned when a merge exceeds the configured file count.
var ErrTooManyFiles = errors.New("too many files")
