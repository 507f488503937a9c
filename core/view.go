package tablepack

import (
	"fmt"

	"github.com/meigma/tablepack/core/internal/tabletype"
)

// View is a borrowed, read-only byte range handed to table factories.
//
// A View aliases the archive buffer. Factories must copy out what they keep
// and must not retain the View itself; the owner frees the buffer once every
// table has been built.
type View = tabletype.View

// NewView wraps b in a View without copying.
func NewView(b []byte) View {
	return tabletype.NewView(b)
}

// Slice returns a zero-copy view of the payload described by e.
//
// The view's bytes are identical to the bytes given to Pack for that table.
func Slice(archive []byte, e IndexEntry) (View, error) {
	if e.Offset < 0 || e.Length < 0 || e.Offset > len(archive) || e.Length > len(archive)-e.Offset {
		return View{}, fmt.Errorf("%w: table %q range [%d,+%d) outside %d byte archive",
			ErrFormat, e.Name, e.Offset, e.Length, len(archive))
	}
	return tabletype.NewView(archive[e.Offset:e.End()]), nil
}

// Unpack returns an owned copy of every table in archive.
func Unpack(archive []byte) (map[string][]byte, error) {
	idx, err := ParseIndex(archive)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, idx.Len())
	for e := range idx.Entries() {
		v, err := Slice(archive, e)
		if err != nil {
			return nil, err
		}
		out[e.Name] = v.Clone()
	}
	return out, nil
}

// UnpackTables is Unpack preserving archive order.
func UnpackTables(archive []byte) ([]Table, error) {
	idx, err := ParseIndex(archive)
	if err != nil {
		return nil, err
	}
	out := make([]Table, 0, idx.Len())
	for e := range idx.Entries() {
		v, err := Slice(archive, e)
		if err != nil {
			return nil, err
		}
		out = append(out, Table{Name: e.Name, Data: v.Clone()})
	}
	return out, nil
}
