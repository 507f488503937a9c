package tablepack

import (
	"fmt"

	packcore "github.com/meigma/tablepack/core"
)

// Source supplies the tables a Container is initialized from.
//
// The container takes ownership of the bytes a Source wraps; callers must
// not modify them afterwards.
type Source interface {
	// Kind names the source shape for logs.
	Kind() string

	open() (store, error)
}

// FromArchive returns a Source backed by a packed archive.
//
// Lazy containers keep the buffer and hand out zero-copy views of it.
func FromArchive(archive []byte) Source {
	return archiveSource{data: archive}
}

// FromCompressed returns a Source backed by an archive wrapped with
// core.Compress. The archive is decompressed when the container is created.
func FromCompressed(data []byte, opts ...DecompressOption) Source {
	return compressedSource{data: data, opts: opts}
}

// FromTables returns a Source backed by already split table buffers.
//
// The map itself is copied, so the container never mutates it; the byte
// slices are shared.
func FromTables(tables map[string][]byte) Source {
	return tablesSource{tables: tables}
}

type archiveSource struct {
	data []byte
}

func (archiveSource) Kind() string { return "archive" }

func (s archiveSource) open() (store, error) {
	if len(s.data) == 0 {
		return nil, fmt.Errorf("%w: archive is empty", ErrValidation)
	}
	idx, err := packcore.ParseIndex(s.data)
	if err != nil {
		return nil, err
	}
	return &archiveStore{raw: s.data, idx: idx}, nil
}

type compressedSource struct {
	data []byte
	opts []DecompressOption
}

func (compressedSource) Kind() string { return "compressed archive" }

func (s compressedSource) open() (store, error) {
	if len(s.data) == 0 {
		return nil, fmt.Errorf("%w: archive is empty", ErrValidation)
	}
	archive, err := packcore.Decompress(s.data, s.opts...)
	if err != nil {
		return nil, err
	}
	return archiveSource{data: archive}.open()
}

type tablesSource struct {
	tables map[string][]byte
}

func (tablesSource) Kind() string { return "tables" }

func (s tablesSource) open() (store, error) {
	if len(s.tables) == 0 {
		return nil, fmt.Errorf("%w: table map is empty", ErrValidation)
	}
	if _, ok := s.tables[""]; ok {
		return nil, fmt.Errorf("%w: table map has an empty name", ErrValidation)
	}
	return newMapStore(s.tables), nil
}

// manualSource starts a Manual container with no tables.
type manualSource struct{}

func (manualSource) Kind() string { return "manual" }

func (manualSource) open() (store, error) {
	return newMapStore(nil), nil
}
