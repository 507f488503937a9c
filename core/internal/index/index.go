package index

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/meigma/tablepack/core/internal/layout"
	"github.com/meigma/tablepack/core/internal/tabletype"
)

// Index maps table names to payload ranges of one archive.
//
// Index keeps archive order for iteration. Take removes an entry; a taken
// entry is never returned again.
type Index struct {
	entries map[string]tabletype.Entry
	order   []string
	pending int64
}

// Parse reads the header and index region of archive.
//
// Parse never reads payload bytes. Every returned entry lies inside the
// payload region of archive.
func Parse(archive []byte) (*Index, error) {
	if len(archive) < layout.HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte header",
			tabletype.ErrFormat, len(archive), layout.HeaderSize)
	}
	if string(archive[:len(layout.Magic)]) != layout.Magic {
		return nil, fmt.Errorf("%w: bad magic %q", tabletype.ErrFormat, archive[:len(layout.Magic)])
	}
	if len(archive) > layout.MaxSize {
		return nil, fmt.Errorf("%w: archive is %d bytes", tabletype.ErrSizeOverflow, len(archive))
	}

	count := layout.Int32(archive[len(layout.Magic):])
	indexLen := layout.Int32(archive[len(layout.Magic)+4:])
	if count < 0 {
		return nil, fmt.Errorf("%w: negative table count %d", tabletype.ErrFormat, count)
	}
	if indexLen < 0 || indexLen > len(archive)-layout.HeaderSize {
		return nil, fmt.Errorf("%w: index region length %d overruns %d byte archive",
			tabletype.ErrFormat, indexLen, len(archive))
	}
	// Every record needs at least its fixed fields plus one name byte.
	if count > indexLen/layout.RecordSize(1) {
		return nil, fmt.Errorf("%w: %d tables cannot fit a %d byte index region",
			tabletype.ErrFormat, count, indexLen)
	}

	payloadStart := layout.HeaderSize + indexLen
	region := archive[layout.HeaderSize:payloadStart]
	idx := &Index{
		entries: make(map[string]tabletype.Entry, count),
		order:   make([]string, 0, count),
	}

	pos := 0
	for i := range count {
		entry, n, err := parseRecord(region[pos:], i)
		if err != nil {
			return nil, err
		}
		pos += n
		if entry.Offset < payloadStart || entry.Length > len(archive)-entry.Offset {
			return nil, fmt.Errorf("%w: table %q range [%d,+%d) outside payload region [%d,%d)",
				tabletype.ErrFormat, entry.Name, entry.Offset, entry.Length, payloadStart, len(archive))
		}
		if _, dup := idx.entries[entry.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate table %q", tabletype.ErrFormat, entry.Name)
		}
		idx.entries[entry.Name] = entry
		idx.order = append(idx.order, entry.Name)
		idx.pending += int64(entry.Length)
	}
	if pos != len(region) {
		return nil, fmt.Errorf("%w: %d trailing bytes in index region", tabletype.ErrFormat, len(region)-pos)
	}
	return idx, nil
}

// parseRecord decodes one index record from the front of b.
// It returns the entry and the number of bytes consumed.
func parseRecord(b []byte, i int) (tabletype.Entry, int, error) {
	if len(b) < 4 {
		return tabletype.Entry{}, 0, fmt.Errorf("%w: record %d truncated", tabletype.ErrFormat, i)
	}
	nameLen := layout.Int32(b)
	if nameLen <= 0 || nameLen > len(b)-layout.RecordFixedSize {
		return tabletype.Entry{}, 0, fmt.Errorf("%w: record %d has name length %d", tabletype.ErrFormat, i, nameLen)
	}
	name := b[4 : 4+nameLen]
	if !utf8.Valid(name) {
		return tabletype.Entry{}, 0, fmt.Errorf("%w: record %d name is not valid UTF-8", tabletype.ErrFormat, i)
	}
	rest := b[4+nameLen:]
	offset := layout.Int32(rest)
	length := layout.Int32(rest[4:])
	if offset < 0 || length < 0 {
		return tabletype.Entry{}, 0, fmt.Errorf("%w: record %d has negative range [%d,+%d)",
			tabletype.ErrFormat, i, offset, length)
	}
	return tabletype.Entry{
		Name:   string(name),
		Offset: offset,
		Length: length,
	}, layout.RecordSize(nameLen), nil
}

// Len returns the number of entries not yet taken.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// PayloadSize returns the total payload length of entries not yet taken.
func (idx *Index) PayloadSize() int64 {
	return idx.pending
}

// Lookup returns the entry for name without removing it.
func (idx *Index) Lookup(name string) (tabletype.Entry, bool) {
	e, ok := idx.entries[name]
	return e, ok
}

// Take removes and returns the entry for name.
func (idx *Index) Take(name string) (tabletype.Entry, bool) {
	e, ok := idx.entries[name]
	if !ok {
		return tabletype.Entry{}, false
	}
	delete(idx.entries, name)
	idx.pending -= int64(e.Length)
	return e, true
}

// Clear removes every entry.
func (idx *Index) Clear() {
	clear(idx.entries)
	idx.order = nil
	idx.pending = 0
}

// Names returns an iterator over pending table names in archive order.
func (idx *Index) Names() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range idx.order {
			if _, ok := idx.entries[name]; !ok {
				continue
			}
			if !yield(name) {
				return
			}
		}
	}
}

// Entries returns an iterator over pending entries in archive order.
func (idx *Index) Entries() iter.Seq[tabletype.Entry] {
	return func(yield func(tabletype.Entry) bool) {
		for _, name := range idx.order {
			e, ok := idx.entries[name]
			if !ok {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}
