package tablepack

import (
	"github.com/meigma/tablepack/core/internal/index"
	"github.com/meigma/tablepack/core/internal/tabletype"
)

type (
	// TableIndex maps table names to payload ranges of one archive.
	//
	// Take removes an entry and never yields it twice, so a TableIndex
	// doubles as the set of tables that have not been loaded yet.
	// A TableIndex is not safe for concurrent use.
	TableIndex = index.Index

	// IndexEntry locates one table's payload inside an archive.
	IndexEntry = tabletype.Entry
)

// ParseIndex parses the index region of archive without reading payloads.
//
// It returns ErrFormat if the magic tag does not match, the buffer is too
// short for the declared index region, or any entry points outside the
// payload region.
func ParseIndex(archive []byte) (*TableIndex, error) {
	return index.Parse(archive)
}
