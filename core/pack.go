package tablepack

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/meigma/tablepack/core/internal/layout"
)

// Table is one named table payload supplied to Pack.
type Table struct {
	// Name identifies the table. Names must be unique within an archive.
	Name string

	// Data is the table's raw bytes. It may be empty.
	Data []byte
}

// Pack encodes tables into a single archive.
//
// Records are written in exactly the order of tables, so the same ordered
// input always produces byte-identical output. The index size is computed
// before anything is written, which lets payload offsets be written in place.
func Pack(tables []Table) ([]byte, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables to pack", ErrValidation)
	}

	seen := make(map[string]struct{}, len(tables))
	indexLen := 0
	payloadLen := 0
	for i, t := range tables {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: table %d has an empty name", ErrValidation, i)
		}
		if !utf8.ValidString(t.Name) {
			return nil, fmt.Errorf("%w: table %d name is not valid UTF-8", ErrValidation, i)
		}
		if _, dup := seen[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrValidation, t.Name)
		}
		seen[t.Name] = struct{}{}

		indexLen += layout.RecordSize(len(t.Name))
		payloadLen += len(t.Data)
		if indexLen > layout.MaxSize || payloadLen > layout.MaxSize-layout.HeaderSize-indexLen {
			return nil, fmt.Errorf("%w: archive exceeds %d bytes", ErrSizeOverflow, layout.MaxSize)
		}
	}

	total := layout.HeaderSize + indexLen + payloadLen
	out := make([]byte, 0, total)
	out = append(out, layout.Magic...)
	out = layout.AppendInt32(out, len(tables))
	out = layout.AppendInt32(out, indexLen)

	offset := layout.HeaderSize + indexLen
	for _, t := range tables {
		out = layout.AppendInt32(out, len(t.Name))
		out = append(out, t.Name...)
		out = layout.AppendInt32(out, offset)
		out = layout.AppendInt32(out, len(t.Data))
		offset += len(t.Data)
	}
	for _, t := range tables {
		out = append(out, t.Data...)
	}
	return out, nil
}

// PackMap encodes m with tables ordered lexicographically by name.
func PackMap(m map[string][]byte) ([]byte, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("%w: no tables to pack", ErrValidation)
	}
	tables := make([]Table, 0, len(m))
	for _, name := range slices.Sorted(maps.Keys(m)) {
		tables = append(tables, Table{Name: name, Data: m[name]})
	}
	return Pack(tables)
}
