package tablepack

import packcore "github.com/meigma/tablepack/core"

// Re-export types from core for the public API.
type (
	// View is a borrowed, read-only byte range handed to table factories.
	// Factories must copy out what they keep and must not retain the View.
	View = packcore.View

	// DecompressOption configures decompression of compressed sources.
	DecompressOption = packcore.DecompressOption
)

// Mode identifies how a Container loads its tables.
type Mode uint8

const (
	// ModeNone is the mode of a released container.
	ModeNone Mode = iota

	// ModeImmediate builds every table during initialization.
	ModeImmediate

	// ModeLazy builds each table on first access.
	ModeLazy

	// ModeManual builds tables supplied incrementally with AddTableBytes.
	ModeManual
)

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeImmediate:
		return "immediate"
	case ModeLazy:
		return "lazy"
	case ModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// MemoryInfo reports how much data a Container still holds.
type MemoryInfo struct {
	// RawBytesSize is the size of the retained archive buffer.
	RawBytesSize int64

	// PendingBytesSize is the total payload size of tables not yet loaded.
	PendingBytesSize int64

	// PendingTableCount is the number of tables not yet loaded.
	PendingTableCount int

	// LoadedTableCount is the number of tables taken for loading.
	LoadedTableCount int
}
