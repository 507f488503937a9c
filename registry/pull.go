package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"

	packcore "github.com/meigma/tablepack/core"
)

// DefaultMaxManifestSize bounds the manifest read by Pull.
const DefaultMaxManifestSize = 4 << 20

// DefaultMaxArchiveSize bounds the archive layer read by Pull.
const DefaultMaxArchiveSize = 1 << 30

// PullOption configures a Pull operation.
type PullOption func(*pullConfig)

type pullConfig struct {
	maxSize int64
	logger  *slog.Logger
}

// WithMaxArchiveSize limits the archive layer size (default: DefaultMaxArchiveSize).
func WithMaxArchiveSize(limit int64) PullOption {
	return func(cfg *pullConfig) {
		cfg.maxSize = limit
	}
}

// WithPullLogger sets the logger for Pull. A nil logger discards output.
func WithPullLogger(logger *slog.Logger) PullOption {
	return func(cfg *pullConfig) {
		cfg.logger = logger
	}
}

// Artifact is an archive fetched by Pull.
type Artifact struct {
	// Data is the layer content: a raw archive, or a zstd frame when
	// Compressed is set.
	Data []byte

	// Compressed reports whether Data must go through core.Decompress.
	Compressed bool

	// Manifest describes the resolved manifest.
	Manifest ocispec.Descriptor

	// Annotations are the manifest annotations.
	Annotations map[string]string
}

// Archive returns the raw archive, decompressing if needed.
func (a *Artifact) Archive(opts ...packcore.DecompressOption) ([]byte, error) {
	if !a.Compressed {
		return a.Data, nil
	}
	return packcore.Decompress(a.Data, opts...)
}

// Pull resolves ref in target and fetches its archive layer.
//
// The layer is verified against its descriptor digest.
func Pull(ctx context.Context, target oras.ReadOnlyTarget, ref string, opts ...PullOption) (*Artifact, error) {
	cfg := pullConfig{maxSize: DefaultMaxArchiveSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: reference is empty", ErrInvalidReference)
	}

	// Step 1: Resolve and fetch the manifest
	desc, err := target.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", ref, mapError(err))
	}
	if desc.MediaType != ocispec.MediaTypeImageManifest {
		return nil, fmt.Errorf("%w: media type %q", ErrInvalidManifest, desc.MediaType)
	}
	if desc.Size > DefaultMaxManifestSize {
		return nil, fmt.Errorf("%w: manifest is %d bytes", ErrInvalidManifest, desc.Size)
	}
	raw, err := content.FetchAll(ctx, target, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", mapError(err))
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if manifest.ArtifactType != ArtifactType {
		return nil, fmt.Errorf("%w: artifact type %q", ErrInvalidManifest, manifest.ArtifactType)
	}

	// Step 2: Find the archive layer
	layer, ok := findArchiveLayer(manifest.Layers)
	if !ok {
		return nil, ErrMissingArchive
	}
	if cfg.maxSize > 0 && layer.Size > cfg.maxSize {
		return nil, fmt.Errorf("%w: archive layer is %d bytes, limit %d", packcore.ErrSizeOverflow, layer.Size, cfg.maxSize)
	}

	// Step 3: Fetch and verify the layer
	data, err := fetchVerified(ctx, target, layer)
	if err != nil {
		return nil, err
	}

	logger.Info("archive pulled", "ref", ref, "digest", desc.Digest.String(),
		"media_type", layer.MediaType, "size", len(data))
	return &Artifact{
		Data:        data,
		Compressed:  layer.MediaType == MediaTypeArchiveZstd,
		Manifest:    desc,
		Annotations: manifest.Annotations,
	}, nil
}

// findArchiveLayer returns the first archive layer.
func findArchiveLayer(layers []ocispec.Descriptor) (ocispec.Descriptor, bool) {
	for _, l := range layers {
		if l.MediaType == MediaTypeArchive || l.MediaType == MediaTypeArchiveZstd {
			return l, true
		}
	}
	return ocispec.Descriptor{}, false
}

// fetchVerified reads exactly desc.Size bytes and checks the digest.
func fetchVerified(ctx context.Context, target oras.ReadOnlyTarget, desc ocispec.Descriptor) ([]byte, error) {
	if err := desc.Digest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	rc, err := target.Fetch(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", mapError(err))
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, desc.Size+1))
	if err != nil {
		return nil, fmt.Errorf("fetch archive: %w", mapError(err))
	}
	if int64(len(data)) != desc.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrDigestMismatch, len(data), desc.Size)
	}
	if got := desc.Digest.Algorithm().FromBytes(data); got != desc.Digest {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrDigestMismatch, got, desc.Digest)
	}
	return data, nil
}
