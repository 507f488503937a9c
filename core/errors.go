package tablepack

import "github.com/meigma/tablepack/core/internal/tabletype"

// Sentinel errors re-exported from internal/tabletype.
var (
	// ErrFormat is returned when an archive's layout is corrupt or truncated.
	ErrFormat = tabletype.ErrFormat

	// ErrNotFound is returned when a requested table has no entry.
	ErrNotFound = tabletype.ErrNotFound

	// ErrState is returned for an operation that is invalid in the current load mode.
	ErrState = tabletype.ErrState

	// ErrValidation is returned for nil or empty inputs.
	ErrValidation = tabletype.ErrValidation

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = tabletype.ErrSizeOverflow

	// ErrDecompression is returned when decompression fails.
	ErrDecompression = tabletype.ErrDecompression
)
