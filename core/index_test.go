package tablepack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tablepack/core/internal/layout"
)

// rawArchive hand-assembles an archive so tests can corrupt any field.
type rawRecord struct {
	name           string
	offset, length int
}

func rawArchive(count, indexLen int, records []rawRecord, payload []byte) []byte {
	b := []byte(layout.Magic)
	b = layout.AppendInt32(b, count)
	b = layout.AppendInt32(b, indexLen)
	for _, r := range records {
		b = layout.AppendInt32(b, len(r.name))
		b = append(b, r.name...)
		b = layout.AppendInt32(b, r.offset)
		b = layout.AppendInt32(b, r.length)
	}
	return append(b, payload...)
}

func TestParseIndex_LazyDrainFixture(t *testing.T) {
	t.Parallel()

	archive, err := PackMap(map[string][]byte{
		"Items":  make([]byte, 10),
		"Levels": make([]byte, 20),
	})
	require.NoError(t, err)

	idx, err := ParseIndex(archive)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, int64(30), idx.PayloadSize())

	e, ok := idx.Take("Items")
	require.True(t, ok)
	assert.Equal(t, 10, e.Length)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, int64(20), idx.PayloadSize())

	_, ok = idx.Take("Items")
	assert.False(t, ok, "an entry is never taken twice")
	_, ok = idx.Lookup("Items")
	assert.False(t, ok)

	var names []string
	for name := range idx.Names() {
		names = append(names, name)
	}
	assert.Equal(t, []string{"Levels"}, names)

	idx.Clear()
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, int64(0), idx.PayloadSize())
}

func TestParseIndex_Empty(t *testing.T) {
	t.Parallel()

	// A zero-table archive cannot be produced by Pack but is well formed.
	idx, err := ParseIndex(rawArchive(0, 0, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestParseIndex_Corrupt(t *testing.T) {
	t.Parallel()

	valid, err := PackMap(map[string][]byte{"Items": []byte("0123456789")})
	require.NoError(t, err)
	flipped := append([]byte(nil), valid...)
	flipped[0] ^= 0xff

	// Header (16) + record for "ab" (14) puts the payload at 30.
	const payloadAt = 30

	tests := []struct {
		name    string
		archive []byte
	}{
		{name: "nil", archive: nil},
		{name: "short header", archive: valid[:layout.HeaderSize-1]},
		{name: "flipped magic", archive: flipped},
		{name: "wrong version", archive: append([]byte("BYTES_v2"), valid[8:]...)},
		{name: "truncated index", archive: valid[:layout.HeaderSize+3]},
		{name: "negative count", archive: rawArchive(-1, 0, nil, nil)},
		{name: "negative index length", archive: rawArchive(0, -5, nil, nil)},
		{name: "index length overruns buffer", archive: rawArchive(1, 1000, nil, nil)},
		{name: "count exceeds index", archive: rawArchive(100, 14,
			[]rawRecord{{name: "ab", offset: payloadAt, length: 0}}, nil)},
		{name: "trailing index bytes", archive: rawArchive(0, 4, nil, []byte{0, 0, 0, 0})},
		{name: "empty name", archive: rawArchive(1, 12,
			[]rawRecord{{name: "", offset: 28, length: 0}}, nil)},
		{name: "name overruns index", archive: func() []byte {
			b := rawArchive(1, 14, []rawRecord{{name: "ab", offset: payloadAt, length: 0}}, nil)
			layout.PutInt32(b[layout.HeaderSize:], 9)
			return b
		}()},
		{name: "invalid utf8 name", archive: rawArchive(1, 14,
			[]rawRecord{{name: "\xff\xfe", offset: payloadAt, length: 1}}, []byte{1})},
		{name: "payload past end", archive: rawArchive(1, 14,
			[]rawRecord{{name: "ab", offset: payloadAt, length: 5}}, []byte{1, 2})},
		{name: "payload inside index", archive: rawArchive(1, 14,
			[]rawRecord{{name: "ab", offset: 4, length: 2}}, []byte{1, 2})},
		{name: "negative payload length", archive: rawArchive(1, 14,
			[]rawRecord{{name: "ab", offset: payloadAt, length: -1}}, nil)},
		{name: "duplicate names", archive: rawArchive(2, 28,
			[]rawRecord{
				{name: "ab", offset: 44, length: 1},
				{name: "ab", offset: 45, length: 1},
			}, []byte{1, 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseIndex(tt.archive)
			require.ErrorIs(t, err, ErrFormat)

			_, err = Unpack(tt.archive)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}
