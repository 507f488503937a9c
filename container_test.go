package tablepack_test

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/tablepack"
	packcore "github.com/meigma/tablepack/core"
)

// rawTable keeps an owned copy of a table's bytes.
type rawTable struct {
	data []byte
}

func newRawTable(v tablepack.View) (*rawTable, error) {
	return &rawTable{data: v.Clone()}, nil
}

// rawTables is a two-table schema with opaque payloads.
type rawTables struct {
	*tablepack.Container

	items  *rawTable
	levels *rawTable

	resolveCalls int
	releaseCalls int
}

func newRawTables(c *tablepack.Container) *rawTables {
	return &rawTables{Container: c}
}

func (t *rawTables) Items() (*rawTable, error) {
	return tablepack.LoadTable(t.Container, &t.items, "Items", newRawTable)
}

func (t *rawTables) Levels() (*rawTable, error) {
	return tablepack.LoadTable(t.Container, &t.levels, "Levels", newRawTable)
}

func (t *rawTables) LoadAll(load tablepack.LoadFunc) error {
	return errors.Join(
		tablepack.Bind(load, &t.items, "Items", newRawTable),
		tablepack.Bind(load, &t.levels, "Levels", newRawTable),
	)
}

func (t *rawTables) ResolveRefs() error {
	t.resolveCalls++
	return nil
}

func (t *rawTables) ReleaseTables() {
	t.releaseCalls++
	t.items = nil
	t.levels = nil
}

// drainFixture is the archive from the lazy drain scenario.
func drainFixture(t *testing.T) (map[string][]byte, []byte) {
	t.Helper()
	tables := map[string][]byte{
		"Items":  bytes.Repeat([]byte{0xA1}, 10),
		"Levels": bytes.Repeat([]byte{0xB2}, 20),
	}
	archive, err := packcore.PackMap(tables)
	require.NoError(t, err)
	return tables, archive
}

func TestLazy_DrainScenario(t *testing.T) {
	t.Parallel()

	tables, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)

	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
	assert.Equal(t, tablepack.ModeLazy, s.Mode())
	assert.Equal(t, 2, s.PendingTableCount())
	assert.Equal(t, 0, s.LoadedTableCount())
	assert.Equal(t, int64(len(archive)), s.RawBytesSize())
	assert.Equal(t, int64(30), s.PendingBytesSize())

	items, err := s.Items()
	require.NoError(t, err)
	assert.Equal(t, tables["Items"], items.data)
	assert.Equal(t, 1, s.LoadedTableCount())
	assert.Equal(t, 1, s.PendingTableCount())
	assert.True(t, s.IsTableLoaded("Items"))
	assert.False(t, s.IsTablePending("Items"))
	assert.True(t, s.IsTablePending("Levels"))

	again, err := s.Items()
	require.NoError(t, err)
	assert.Same(t, items, again, "accessor is memoized")

	require.NoError(t, s.ResolveAllRefs(false))
	assert.Equal(t, 2, s.LoadedTableCount())
	assert.Equal(t, 0, s.PendingTableCount())
	assert.True(t, s.IsRefResolved())
	assert.Equal(t, 1, s.resolveCalls)
	assert.Equal(t, tables["Levels"], s.levels.data)

	// Draining the last table drops the archive buffer.
	assert.Equal(t, tablepack.MemoryInfo{LoadedTableCount: 2}, s.MemoryInfo())
}

func TestLazy_FactoriesCopyOut(t *testing.T) {
	t.Parallel()

	tables, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)

	items, err := s.Items()
	require.NoError(t, err)
	s.ClearPendingBytes()
	for i := range archive {
		archive[i] = 0
	}
	assert.Equal(t, tables["Items"], items.data)
}

func TestModeEquivalence(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)

	immediate := tablepack.NewHost(newRawTables)
	si, err := immediate.InitImmediate(tablepack.FromArchive(archive), true)
	require.NoError(t, err)
	ii, err := si.Items()
	require.NoError(t, err)
	li, err := si.Levels()
	require.NoError(t, err)

	lazy := tablepack.NewHost(newRawTables)
	sl, err := lazy.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
	il, err := sl.Items()
	require.NoError(t, err)
	ll, err := sl.Levels()
	require.NoError(t, err)
	require.NoError(t, sl.ResolveAllRefs(false))

	assert.Equal(t, ii, il)
	assert.Equal(t, li, ll)
	assert.Equal(t, si.IsRefResolved(), sl.IsRefResolved())
	assert.Equal(t, si.LoadedTableCount(), sl.LoadedTableCount())
}

func TestImmediate_FreesBuffer(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitImmediate(tablepack.FromArchive(archive), true)
	require.NoError(t, err)

	assert.Equal(t, tablepack.ModeImmediate, s.Mode())
	assert.True(t, s.IsInitialized())
	assert.True(t, s.IsRefResolved())
	assert.Equal(t, 1, s.resolveCalls)
	assert.Equal(t, tablepack.MemoryInfo{LoadedTableCount: 2}, s.MemoryInfo())
	assert.Empty(t, s.PendingTables())
}

func TestImmediate_WithoutResolve(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitImmediate(tablepack.FromArchive(archive), false)
	require.NoError(t, err)
	assert.False(t, s.IsRefResolved())
	assert.Equal(t, 0, s.resolveCalls)

	require.NoError(t, s.ResolveAllRefs(false))
	assert.True(t, s.IsRefResolved())
	assert.Equal(t, 2, s.LoadedTableCount())
}

func TestImmediate_DropsUnknownTables(t *testing.T) {
	t.Parallel()

	archive, err := packcore.PackMap(map[string][]byte{
		"Items":   []byte("items"),
		"Levels":  []byte("levels"),
		"Unknown": []byte("nobody reads this"),
	})
	require.NoError(t, err)

	host := tablepack.NewHost(newRawTables)
	s, err := host.InitImmediate(tablepack.FromArchive(archive), true)
	require.NoError(t, err)
	assert.Equal(t, 2, s.LoadedTableCount())
	assert.Equal(t, 0, s.PendingTableCount())
	assert.False(t, s.IsTableLoaded("Unknown"))
}

func TestImmediate_FromTables(t *testing.T) {
	t.Parallel()

	tables, _ := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitImmediate(tablepack.FromTables(tables), true)
	require.NoError(t, err)

	items, err := s.Items()
	require.NoError(t, err)
	assert.Equal(t, tables["Items"], items.data)
	assert.Len(t, tables, 2, "caller's map is not drained")
	assert.Equal(t, int64(0), s.PendingBytesSize())
}

func TestLazy_FromTables(t *testing.T) {
	t.Parallel()

	tables, _ := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromTables(tables))
	require.NoError(t, err)

	assert.Equal(t, int64(0), s.RawBytesSize())
	assert.Equal(t, int64(30), s.PendingBytesSize())
	assert.Equal(t, []string{"Items", "Levels"}, s.PendingTables())

	_, err = s.Levels()
	require.NoError(t, err)
	assert.Equal(t, int64(10), s.PendingBytesSize())
	assert.Len(t, tables, 2)
}

func TestLazy_FromCompressed(t *testing.T) {
	t.Parallel()

	tables, archive := drainFixture(t)
	packed, err := packcore.Compress(archive)
	require.NoError(t, err)

	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromCompressed(packed))
	require.NoError(t, err)
	assert.Equal(t, int64(len(archive)), s.RawBytesSize())

	levels, err := s.Levels()
	require.NoError(t, err)
	assert.Equal(t, tables["Levels"], levels.data)
}

func TestSingleInstanceGuard(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
	_, err = s.Items()
	require.NoError(t, err)
	before := s.MemoryInfo()

	_, err = host.InitImmediate(tablepack.FromArchive(archive), true)
	require.ErrorIs(t, err, tablepack.ErrState)
	_, err = host.InitLazy(tablepack.FromArchive(archive))
	require.ErrorIs(t, err, tablepack.ErrState)
	_, err = host.InitManual()
	require.ErrorIs(t, err, tablepack.ErrState)
	_, err = host.Init(tablepack.FromArchive(archive), true, false)
	require.ErrorIs(t, err, tablepack.ErrState)

	assert.Equal(t, before, s.MemoryInfo())
	assert.Equal(t, tablepack.ModeLazy, s.Mode())
	cur, ok := host.Current()
	require.True(t, ok)
	assert.Same(t, s, cur)
}

func TestSingleInstanceGuard_Concurrent(t *testing.T) {
	t.Parallel()

	host := tablepack.NewHost(newRawTables)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := host.InitManual(); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestRelease(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
	_, err = s.Items()
	require.NoError(t, err)

	s.Release()
	assert.Equal(t, tablepack.ModeNone, s.Mode())
	assert.False(t, s.IsInitialized())
	assert.False(t, s.IsRefResolved())
	assert.Equal(t, tablepack.MemoryInfo{}, s.MemoryInfo())
	assert.Equal(t, 1, s.releaseCalls)
	_, ok := host.Current()
	assert.False(t, ok)

	// Released containers refuse work.
	_, err = s.Levels()
	require.ErrorIs(t, err, tablepack.ErrState)
	require.ErrorIs(t, s.ResolveAllRefs(true), tablepack.ErrState)
	require.ErrorIs(t, s.AddTableBytes("x", []byte("y")), tablepack.ErrState)

	// Release is idempotent and a fresh instance can start.
	s.Release()
	assert.Equal(t, 1, s.releaseCalls)
	s2, err := host.InitImmediate(tablepack.FromArchive(archive), true)
	require.NoError(t, err)
	assert.NotSame(t, s, s2)

	// A stale container's Release does not free the new slot.
	s.Release()
	cur, ok := host.Current()
	require.True(t, ok)
	assert.Same(t, s2, cur)
}

func TestManual_StreamingScenario(t *testing.T) {
	t.Parallel()

	host := tablepack.NewHost(newRawTables)
	s, err := host.InitManual()
	require.NoError(t, err)
	assert.Equal(t, tablepack.ModeManual, s.Mode())
	assert.Equal(t, 0, s.PendingTableCount())

	b1 := []byte("items-v1")
	b2 := []byte("levels-v1")

	require.NoError(t, s.AddTableBytes("Items", b1))
	assert.True(t, s.IsTablePending("Items"))

	items, err := s.Items()
	require.NoError(t, err)
	assert.Equal(t, b1, items.data)
	assert.True(t, s.IsTableLoaded("Items"))

	require.ErrorIs(t, s.AddTableBytes("Items", b2), tablepack.ErrState)

	require.NoError(t, s.AddTableBytes("Levels", b2))
	assert.True(t, s.IsTablePending("Levels"))
	assert.False(t, s.IsTableLoaded("Levels"))
	assert.Equal(t, 1, s.PendingTableCount())
	assert.Equal(t, int64(len(b2)), s.PendingBytesSize())

	// Pending entries are never overwritten either.
	require.ErrorIs(t, s.AddTableBytes("Levels", []byte("other")), tablepack.ErrState)

	require.NoError(t, s.ResolveAllRefs(false))
	assert.Equal(t, b2, s.levels.data)
	assert.Equal(t, 0, s.PendingTableCount())
}

func TestManual_AddTableBytesValidation(t *testing.T) {
	t.Parallel()

	host := tablepack.NewHost(newRawTables)
	s, err := host.InitManual()
	require.NoError(t, err)

	require.ErrorIs(t, s.AddTableBytes("", []byte("x")), tablepack.ErrValidation)
	require.ErrorIs(t, s.AddTableBytes("Items", nil), tablepack.ErrValidation)
	require.ErrorIs(t, s.AddTableBytes("Items", []byte{}), tablepack.ErrValidation)

	s.ClearPendingBytes()
	require.ErrorIs(t, s.AddTableBytes("Items", []byte("x")), tablepack.ErrState)
}

func TestAddTableBytes_WrongMode(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)

	require.ErrorIs(t, s.AddTableBytes("Extra", []byte("x")), tablepack.ErrState)
	assert.Equal(t, 2, s.PendingTableCount())
}

func TestResolveAllRefs_Idempotent(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)

	require.NoError(t, s.ResolveAllRefs(false))
	require.ErrorIs(t, s.ResolveAllRefs(false), tablepack.ErrState)
	assert.Equal(t, 1, s.resolveCalls)

	require.NoError(t, s.ResolveAllRefs(true))
	assert.Equal(t, 2, s.resolveCalls)
	assert.True(t, s.IsRefResolved())
}

func TestLoadTable_NotFound(t *testing.T) {
	t.Parallel()

	archive, err := packcore.PackMap(map[string][]byte{"Items": []byte("only items")})
	require.NoError(t, err)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)

	levels, err := s.Levels()
	require.ErrorIs(t, err, tablepack.ErrNotFound)
	assert.Nil(t, levels)
	assert.Nil(t, s.levels)

	// Sibling tables remain usable.
	items, err := s.Items()
	require.NoError(t, err)
	assert.Equal(t, []byte("only items"), items.data)

	// A partial table set still resolves.
	require.NoError(t, s.ResolveAllRefs(false))
}

func TestClearPendingBytes(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	host := tablepack.NewHost(newRawTables)
	s, err := host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
	items, err := s.Items()
	require.NoError(t, err)

	s.ClearPendingBytes()
	assert.Equal(t, tablepack.MemoryInfo{LoadedTableCount: 1}, s.MemoryInfo())

	_, err = s.Levels()
	require.ErrorIs(t, err, tablepack.ErrNotFound)

	// Loaded tables survive.
	again, err := s.Items()
	require.NoError(t, err)
	assert.Same(t, items, again)
}

func TestInit_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  tablepack.Source
	}{
		{name: "nil source", src: nil},
		{name: "nil archive", src: tablepack.FromArchive(nil)},
		{name: "empty archive", src: tablepack.FromArchive([]byte{})},
		{name: "nil tables", src: tablepack.FromTables(nil)},
		{name: "empty tables", src: tablepack.FromTables(map[string][]byte{})},
		{name: "empty table name", src: tablepack.FromTables(map[string][]byte{"": []byte("x")})},
		{name: "empty compressed", src: tablepack.FromCompressed(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			host := tablepack.NewHost(newRawTables)
			_, err := host.InitLazy(tt.src)
			require.ErrorIs(t, err, tablepack.ErrValidation)
			_, err = host.InitImmediate(tt.src, true)
			require.ErrorIs(t, err, tablepack.ErrValidation)
			_, ok := host.Current()
			assert.False(t, ok)
		})
	}
}

func TestInit_CorruptArchive(t *testing.T) {
	t.Parallel()

	_, archive := drainFixture(t)
	archive[0] ^= 0xff

	_, err := packcore.ParseIndex(archive)
	require.ErrorIs(t, err, tablepack.ErrFormat)

	host := tablepack.NewHost(newRawTables)
	_, err = host.InitLazy(tablepack.FromArchive(archive))
	require.ErrorIs(t, err, tablepack.ErrFormat)
	_, err = host.InitImmediate(tablepack.FromArchive(archive), true)
	require.ErrorIs(t, err, tablepack.ErrFormat)
	_, ok := host.Current()
	assert.False(t, ok)

	// The host is still free for a valid archive.
	archive[0] ^= 0xff
	_, err = host.InitLazy(tablepack.FromArchive(archive))
	require.NoError(t, err)
}

func TestInit_CorruptCompressed(t *testing.T) {
	t.Parallel()

	host := tablepack.NewHost(newRawTables)
	_, err := host.InitLazy(tablepack.FromCompressed([]byte("not zstd")))
	require.ErrorIs(t, err, tablepack.ErrDecompression)
	_, ok := host.Current()
	assert.False(t, ok)
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", tablepack.ModeNone.String())
	assert.Equal(t, "immediate", tablepack.ModeImmediate.String())
	assert.Equal(t, "lazy", tablepack.ModeLazy.String())
	assert.Equal(t, "manual", tablepack.ModeManual.String())
	assert.Equal(t, "unknown", tablepack.Mode(42).String())
}
