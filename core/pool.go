package tablepack

import (
	"sync"

	"github.com/meigma/tablepack/core/internal/compress"
)

// poolKey identifies decoder settings that can share a pool.
type poolKey struct {
	maxDecoderMemory uint64
	lowmem           bool
}

var decoderPools sync.Map // poolKey -> *compress.DecoderPool

// decoderPool returns the shared pool for cfg's decoder settings.
func decoderPool(cfg decompressConfig) *compress.DecoderPool {
	key := poolKey{maxDecoderMemory: cfg.maxDecoderMemory, lowmem: cfg.lowmem}
	if p, ok := decoderPools.Load(key); ok {
		return p.(*compress.DecoderPool) //nolint:forcetypeassert // only pools are stored
	}
	p, _ := decoderPools.LoadOrStore(key, compress.NewDecoderPool(key.maxDecoderMemory, compress.WithLowmem(key.lowmem)))
	return p.(*compress.DecoderPool) //nolint:forcetypeassert // only pools are stored
}
