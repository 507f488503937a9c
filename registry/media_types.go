package registry

// Media types for table archives in OCI registries.
const (
	// ArtifactType identifies table archives as an OCI 1.1 artifact type.
	ArtifactType = "application/vnd.meigma.tablepack.v1"

	// MediaTypeArchive is the media type of a raw archive layer.
	MediaTypeArchive = "application/vnd.meigma.tablepack.archive.v3"

	// MediaTypeArchiveZstd is the media type of a zstd-wrapped archive layer.
	MediaTypeArchiveZstd = MediaTypeArchive + "+zstd"
)

// Manifest annotation keys.
const (
	// AnnotationTableCount records how many tables the archive holds.
	AnnotationTableCount = "vnd.meigma.tablepack.tables"
)
