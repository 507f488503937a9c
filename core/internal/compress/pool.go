// Package compress wraps zstd encoding and decoding of whole archives.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/tablepack/core/internal/tabletype"
)

// DefaultMaxDecoderMemory is the default zstd decoder memory limit.
const DefaultMaxDecoderMemory = 256 << 20

// frameMagic is the little-endian zstd frame magic number.
var frameMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// IsFrame reports whether data starts with a zstd frame header.
func IsFrame(data []byte) bool {
	return bytes.HasPrefix(data, frameMagic)
}

// DecoderPool manages reusable zstd decoders to reduce allocation overhead.
type DecoderPool struct {
	pool             *sync.Pool
	maxDecoderMemory uint64
	lowmem           bool
}

// PoolOption configures a DecoderPool.
type PoolOption func(*DecoderPool)

// WithLowmem enables or disables low-memory mode for decoders.
func WithLowmem(enabled bool) PoolOption {
	return func(p *DecoderPool) {
		p.lowmem = enabled
	}
}

// NewDecoderPool creates a pool of zstd decoders.
// If maxMemory is 0, no memory limit is applied to decoders.
func NewDecoderPool(maxMemory uint64, opts ...PoolOption) *DecoderPool {
	p := &DecoderPool{maxDecoderMemory: maxMemory}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder()
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// newDecoder creates a decoder with the configured limits.
func (p *DecoderPool) newDecoder() (*zstd.Decoder, error) {
	opts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(p.lowmem),
	}
	if p.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
	}
	return zstd.NewReader(nil, opts...)
}

// get returns a decoder and a release function that returns it to the pool.
func (p *DecoderPool) get() (*zstd.Decoder, func(), error) {
	if dec, ok := p.pool.Get().(*zstd.Decoder); ok && dec != nil {
		return dec, func() { p.pool.Put(dec) }, nil
	}
	// Pool's New function failed, try directly
	dec, err := p.newDecoder()
	if err != nil {
		return nil, nil, err
	}
	return dec, dec.Close, nil
}

// Decode decompresses a single zstd stream held in data.
//
// maxSize bounds the decoded size; 0 disables the bound.
func (p *DecoderPool) Decode(data []byte, maxSize uint64) ([]byte, error) {
	dec, release, err := p.get()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tabletype.ErrDecompression, err)
	}
	defer release()

	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", tabletype.ErrDecompression, err)
	}
	defer dec.Reset(nil) //nolint:errcheck // clearing state before pool return

	var r io.Reader = dec
	if maxSize > 0 {
		r = io.LimitReader(dec, int64(min(maxSize, uint64(1<<62)))+1) //nolint:gosec // bounded above
	}
	out, err := io.ReadAll(r)
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			return nil, fmt.Errorf("%w: %v", tabletype.ErrSizeOverflow, err)
		}
		return nil, fmt.Errorf("%w: %v", tabletype.ErrDecompression, err)
	}
	if maxSize > 0 && uint64(len(out)) > maxSize {
		return nil, fmt.Errorf("%w: decoded size exceeds %d bytes", tabletype.ErrSizeOverflow, maxSize)
	}
	return out, nil
}
