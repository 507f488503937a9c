package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"

	packcore "github.com/meigma/tablepack/core"
)

// Push stores an archive in target and tags the manifest.
//
// data is either a raw archive or one wrapped by core.Compress; it is
// validated before anything is pushed, so a corrupt archive never reaches
// the registry.
func Push(ctx context.Context, target oras.Target, tag string, data []byte, opts ...PushOption) (ocispec.Descriptor, error) {
	cfg := pushConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if tag == "" {
		return ocispec.Descriptor{}, fmt.Errorf("%w: tag is empty", ErrInvalidReference)
	}

	// Step 1: Validate the archive and pick the layer media type
	mediaType, tables, err := inspectArchive(data)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	// Step 2: Push the archive layer
	layer, err := oras.PushBytes(ctx, target, mediaType, data)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push archive: %w", mapError(err))
	}

	// Step 3: Pack and push the manifest (oras pushes the empty config)
	manifestDesc, err := oras.PackManifest(ctx, target, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers:              []ocispec.Descriptor{layer},
			ManifestAnnotations: manifestAnnotations(cfg.annotations, tables),
		})
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push manifest: %w", mapError(err))
	}

	// Step 4: Apply tags
	for _, t := range append([]string{tag}, cfg.tags...) {
		if err := target.Tag(ctx, manifestDesc, t); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("tag %q: %w", t, mapError(err))
		}
	}

	logger.Info("archive pushed", "tag", tag, "digest", manifestDesc.Digest.String(),
		"media_type", mediaType, "tables", tables, "size", len(data))
	return manifestDesc, nil
}

// inspectArchive validates data and returns its layer media type and
// table count.
func inspectArchive(data []byte) (string, int, error) {
	mediaType := MediaTypeArchive
	archive := data
	if packcore.IsCompressed(data) {
		var err error
		archive, err = packcore.Decompress(data)
		if err != nil {
			return "", 0, err
		}
		mediaType = MediaTypeArchiveZstd
	}
	idx, err := packcore.ParseIndex(archive)
	if err != nil {
		return "", 0, err
	}
	return mediaType, idx.Len(), nil
}

// manifestAnnotations merges custom annotations over the defaults.
func manifestAnnotations(custom map[string]string, tables int) map[string]string {
	annotations := map[string]string{
		ocispec.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
		AnnotationTableCount:      strconv.Itoa(tables),
	}
	for k, v := range custom {
		annotations[k] = v
	}
	return annotations
}
