package tablepack

import (
	"fmt"

	"github.com/meigma/tablepack/core/internal/compress"
)

// DefaultMaxDecompressedSize bounds Decompress output unless overridden.
const DefaultMaxDecompressedSize = 1 << 30

// CompressionLevel selects the zstd encoder level used by Compress.
type CompressionLevel = compress.Level

// Re-exported compression levels.
const (
	CompressionFastest = compress.LevelFastest
	CompressionDefault = compress.LevelDefault
	CompressionBetter  = compress.LevelBetter
	CompressionBest    = compress.LevelBest
)

// compressConfig holds Compress settings.
type compressConfig struct {
	level CompressionLevel
}

// CompressOption configures Compress.
type CompressOption func(*compressConfig)

// CompressWithLevel sets the zstd encoder level (default: CompressionDefault).
func CompressWithLevel(level CompressionLevel) CompressOption {
	return func(c *compressConfig) {
		c.level = level
	}
}

// Compress wraps an archive in a single zstd frame for transport.
//
// Compress validates that data is an archive first so a corrupt archive is
// never shipped.
func Compress(archive []byte, opts ...CompressOption) ([]byte, error) {
	cfg := compressConfig{level: CompressionDefault}
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := ParseIndex(archive); err != nil {
		return nil, err
	}
	return compress.Encode(archive, cfg.level)
}

// decompressConfig holds Decompress settings.
type decompressConfig struct {
	maxSize          uint64
	maxDecoderMemory uint64
	lowmem           bool
}

// DecompressOption configures Decompress.
type DecompressOption func(*decompressConfig)

// DecompressWithMaxSize limits the decompressed archive size.
// Set limit to 0 to disable the limit.
func DecompressWithMaxSize(limit uint64) DecompressOption {
	return func(c *decompressConfig) {
		c.maxSize = limit
	}
}

// DecompressWithMaxDecoderMemory limits the memory used by the zstd decoder.
// Set limit to 0 to disable the limit.
func DecompressWithMaxDecoderMemory(limit uint64) DecompressOption {
	return func(c *decompressConfig) {
		c.maxDecoderMemory = limit
	}
}

// DecompressWithLowmem sets whether the zstd decoder uses low-memory mode (default: false).
func DecompressWithLowmem(enabled bool) DecompressOption {
	return func(c *decompressConfig) {
		c.lowmem = enabled
	}
}

// IsCompressed reports whether data is a zstd frame rather than a raw archive.
func IsCompressed(data []byte) bool {
	return compress.IsFrame(data)
}

// Decompress unwraps an archive produced by Compress.
//
// The result is checked with ParseIndex so corrupt content fails with
// ErrFormat here rather than at first table access.
func Decompress(data []byte, opts ...DecompressOption) ([]byte, error) {
	cfg := decompressConfig{
		maxSize:          DefaultMaxDecompressedSize,
		maxDecoderMemory: compress.DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !compress.IsFrame(data) {
		return nil, fmt.Errorf("%w: missing zstd frame header", ErrDecompression)
	}

	pool := decoderPool(cfg)
	archive, err := pool.Decode(data, cfg.maxSize)
	if err != nil {
		return nil, err
	}
	if _, err := ParseIndex(archive); err != nil {
		return nil, err
	}
	return archive, nil
}
