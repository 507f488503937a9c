// Package registry pushes and pulls table archives as OCI artifacts.
//
// An archive is stored as a single layer of an OCI 1.1 manifest whose
// artifact type is [ArtifactType]. Raw archives use [MediaTypeArchive];
// zstd-wrapped archives use [MediaTypeArchiveZstd]. Any oras target works:
// a remote repository from [NewRepository], an OCI layout on disk, or an
// in-memory store.
package registry
