package tablepack

import (
	"fmt"
	"log/slog"
	"slices"
)

// Container tracks which tables of one schema are pending and which are
// loaded, and owns the bytes of every pending table.
//
// A Container is created by a Host and embedded (or referenced) by schema
// code. It is not safe for concurrent use.
type Container struct {
	mode     Mode
	pending  store // nil once the pending bytes are cleared
	loaded   map[string]struct{}
	resolved bool
	schema   Schema
	detach   func(*Container) // releases the host slot; nil when not attached
	logger   *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (c *Container) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// take moves the bytes of name out of the pending set and marks it loaded.
func (c *Container) take(name string) (View, bool) {
	if c.pending == nil {
		return View{}, false
	}
	view, ok := c.pending.take(name)
	if !ok {
		return View{}, false
	}
	c.loaded[name] = struct{}{}
	return view, true
}

// loadFunc returns the LoadFunc handed to Schema.LoadAll.
func (c *Container) loadFunc() LoadFunc {
	return func(name string) (View, bool) {
		view, ok := c.take(name)
		if !ok && !c.IsTableLoaded(name) {
			c.log().Warn("table not found", "table", name, "mode", c.mode.String())
		}
		return view, ok
	}
}

// loadImmediate builds every table, optionally resolves references, and
// frees the pending bytes. No view outlives the factory calls, so the
// buffer can go right away.
func (c *Container) loadImmediate(resolveRefs bool) error {
	if err := c.schema.LoadAll(c.loadFunc()); err != nil {
		return err
	}
	if resolveRefs {
		if err := c.ResolveAllRefs(false); err != nil {
			return err
		}
	}
	if n := c.pending.len(); n > 0 {
		c.log().Debug("dropping tables unknown to schema", "count", n, "tables", slices.Collect(c.pending.names()))
	}
	c.ClearPendingBytes()
	return nil
}

// Mode returns the load mode. It is ModeNone after Release.
func (c *Container) Mode() Mode {
	return c.mode
}

// IsInitialized reports whether the container has not been released.
func (c *Container) IsInitialized() bool {
	return c.mode != ModeNone
}

// IsRefResolved reports whether ResolveAllRefs has completed.
func (c *Container) IsRefResolved() bool {
	return c.resolved
}

// AddTableBytes queues the bytes of one table in Manual mode.
//
// The table is built on first access. data is retained; callers must not
// modify it afterwards. A table that is already loaded or already pending
// is never overwritten.
func (c *Container) AddTableBytes(name string, data []byte) error {
	if c.mode != ModeManual {
		c.log().Error("AddTableBytes is only available in manual mode", "mode", c.mode.String())
		return fmt.Errorf("%w: AddTableBytes requires manual mode, container is %s", ErrState, c.mode)
	}
	if name == "" || len(data) == 0 {
		c.log().Error("invalid table bytes", "table", name, "size", len(data))
		return fmt.Errorf("%w: table name and bytes must be non-empty", ErrValidation)
	}
	ms, ok := c.pending.(*mapStore)
	if !ok {
		return fmt.Errorf("%w: pending bytes were cleared", ErrState)
	}
	if c.IsTableLoaded(name) || ms.has(name) {
		c.log().Warn("table already exists", "table", name)
		return fmt.Errorf("%w: table %q already exists", ErrState, name)
	}
	ms.add(name, data)
	return nil
}

// ResolveAllRefs runs the schema's reference linking pass.
//
// In Lazy and Manual mode every pending table is loaded first, since
// linking may dereference any table. Without force, a second call is a
// no-op that returns ErrState.
func (c *Container) ResolveAllRefs(force bool) error {
	if c.mode == ModeNone {
		return fmt.Errorf("%w: container is released", ErrState)
	}
	if c.resolved && !force {
		c.log().Warn("references already resolved")
		return fmt.Errorf("%w: references already resolved", ErrState)
	}
	if c.mode != ModeImmediate && c.pending != nil && c.pending.len() > 0 {
		c.log().Debug("loading pending tables before resolving references", "count", c.pending.len())
		if err := c.schema.LoadAll(c.loadFunc()); err != nil {
			return err
		}
	}
	if err := c.schema.ResolveRefs(); err != nil {
		return fmt.Errorf("tablepack: resolve references: %w", err)
	}
	c.resolved = true
	return nil
}

// ClearPendingBytes frees the archive buffer and every pending table.
//
// This is irreversible: tables that were not loaded become unreachable.
// In Manual mode AddTableBytes fails afterwards.
func (c *Container) ClearPendingBytes() {
	if c.pending == nil {
		return
	}
	c.pending.clear()
	c.pending = nil
}

// Release frees all pending data, resets the container to ModeNone and
// frees the host slot so a new container can be initialized.
// Release is idempotent.
func (c *Container) Release() {
	c.release()
	if c.detach != nil {
		c.detach(c)
		c.detach = nil
	}
}

// release resets the container without touching the host.
func (c *Container) release() {
	c.ClearPendingBytes()
	if c.mode != ModeNone {
		if h, ok := c.schema.(ReleaseHook); ok {
			h.ReleaseTables()
		}
	}
	clear(c.loaded)
	c.mode = ModeNone
	c.resolved = false
}

// IsTableLoaded reports whether name has been taken for loading.
func (c *Container) IsTableLoaded(name string) bool {
	_, ok := c.loaded[name]
	return ok
}

// IsTablePending reports whether name is still waiting to be loaded.
func (c *Container) IsTablePending(name string) bool {
	return c.pending != nil && c.pending.has(name)
}

// PendingTables returns the names of tables not yet loaded.
// Archive-backed containers report archive order; others sort by name.
func (c *Container) PendingTables() []string {
	if c.pending == nil {
		return nil
	}
	return slices.Collect(c.pending.names())
}

// LoadedTableCount returns the number of tables taken for loading.
func (c *Container) LoadedTableCount() int {
	return len(c.loaded)
}

// PendingTableCount returns the number of tables not yet loaded.
func (c *Container) PendingTableCount() int {
	if c.pending == nil {
		return 0
	}
	return c.pending.len()
}

// RawBytesSize returns the size of the retained archive buffer.
func (c *Container) RawBytesSize() int64 {
	if c.pending == nil {
		return 0
	}
	return c.pending.rawSize()
}

// PendingBytesSize returns the total payload size of tables not yet loaded.
func (c *Container) PendingBytesSize() int64 {
	if c.pending == nil {
		return 0
	}
	return c.pending.pendingSize()
}

// MemoryInfo returns all size and count diagnostics at once.
func (c *Container) MemoryInfo() MemoryInfo {
	return MemoryInfo{
		RawBytesSize:      c.RawBytesSize(),
		PendingBytesSize:  c.PendingBytesSize(),
		PendingTableCount: c.PendingTableCount(),
		LoadedTableCount:  c.LoadedTableCount(),
	}
}
