package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Level is a zstd encoder level.
type Level = zstd.EncoderLevel

// Re-exported encoder levels.
const (
	LevelFastest = zstd.SpeedFastest
	LevelDefault = zstd.SpeedDefault
	LevelBetter  = zstd.SpeedBetterCompression
	LevelBest    = zstd.SpeedBestCompression
)

// Encode compresses data into a single zstd frame.
//
// The frame records its content size so decoders can allocate once.
func Encode(data []byte, level Level) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}
