package tablepack

import packcore "github.com/meigma/tablepack/core"

// Errors re-exported from core.
var (
	// ErrFormat is returned when an archive's layout is corrupt or truncated.
	ErrFormat = packcore.ErrFormat

	// ErrNotFound is returned when a requested table has no pending entry.
	ErrNotFound = packcore.ErrNotFound

	// ErrState is returned for an operation that is invalid in the current load mode.
	ErrState = packcore.ErrState

	// ErrValidation is returned for nil or empty inputs.
	ErrValidation = packcore.ErrValidation

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = packcore.ErrSizeOverflow

	// ErrDecompression is returned when decompression fails.
	ErrDecompression = packcore.ErrDecompression
)
