package tabletype

import "errors"

// Sentinel errors for archive and container operations.
var (
	// ErrFormat is returned when an archive's layout is corrupt or truncated.
	ErrFormat = errors.New("tablepack: invalid archive format")

	// ErrNotFound is returned when a requested table has no entry.
	ErrNotFound = errors.New("tablepack: table not found")

	// ErrState is returned for an operation that is invalid in the current load mode.
	ErrState = errors.New("tablepack: invalid state")

	// ErrValidation is returned for nil or empty inputs.
	ErrValidation = errors.New("tablepack: invalid input")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("tablepack: size overflow")

	// ErrDecompression is returned when decompression fails.
	ErrDecompression = errors.New("tablepack: decompression failed")
)
