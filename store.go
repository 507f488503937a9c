package tablepack

import (
	"iter"
	"maps"
	"slices"

	packcore "github.com/meigma/tablepack/core"
)

// store holds the payloads of tables that have not been loaded yet.
// take is a move: an entry is handed out at most once.
type store interface {
	take(name string) (View, bool)
	has(name string) bool
	len() int
	pendingSize() int64
	rawSize() int64
	names() iter.Seq[string]
	clear()
}

// archiveStore serves zero-copy views from one archive buffer.
type archiveStore struct {
	raw []byte
	idx *packcore.TableIndex
}

func (s *archiveStore) take(name string) (View, bool) {
	e, ok := s.idx.Take(name)
	if !ok {
		return View{}, false
	}
	// Parse already bounded every entry to the buffer.
	v, err := packcore.Slice(s.raw, e)
	if err != nil {
		return View{}, false
	}
	if s.idx.Len() == 0 {
		// Nothing else can be sliced; views already handed out keep the
		// backing array alive only as long as their factories need it.
		s.raw = nil
	}
	return v, true
}

func (s *archiveStore) has(name string) bool {
	_, ok := s.idx.Lookup(name)
	return ok
}

func (s *archiveStore) len() int           { return s.idx.Len() }
func (s *archiveStore) pendingSize() int64 { return s.idx.PayloadSize() }
func (s *archiveStore) rawSize() int64     { return int64(len(s.raw)) }

func (s *archiveStore) names() iter.Seq[string] {
	return s.idx.Names()
}

func (s *archiveStore) clear() {
	s.idx.Clear()
	s.raw = nil
}

// mapStore serves views of individually supplied table buffers.
type mapStore struct {
	tables map[string][]byte
	size   int64
}

func newMapStore(tables map[string][]byte) *mapStore {
	s := &mapStore{tables: make(map[string][]byte, len(tables))}
	for name, data := range tables {
		s.add(name, data)
	}
	return s
}

func (s *mapStore) add(name string, data []byte) {
	s.tables[name] = data
	s.size += int64(len(data))
}

func (s *mapStore) take(name string) (View, bool) {
	data, ok := s.tables[name]
	if !ok {
		return View{}, false
	}
	delete(s.tables, name)
	s.size -= int64(len(data))
	return packcore.NewView(data), true
}

func (s *mapStore) has(name string) bool {
	_, ok := s.tables[name]
	return ok
}

func (s *mapStore) len() int           { return len(s.tables) }
func (s *mapStore) pendingSize() int64 { return s.size }
func (s *mapStore) rawSize() int64     { return 0 }

func (s *mapStore) names() iter.Seq[string] {
	return slices.Values(slices.Sorted(maps.Keys(s.tables)))
}

func (s *mapStore) clear() {
	clear(s.tables)
	s.size = 0
}
