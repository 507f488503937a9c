package sample

import (
	"errors"

	"github.com/meigma/tablepack"
)

// Table names as they appear in archives.
const (
	ItemsTable  = "Items"
	LevelsTable = "Levels"
)

// Tables is the schema root: one accessor per table.
type Tables struct {
	*tablepack.Container

	items  *Items
	levels *Levels
}

// New returns the schema bound to c. It is the constructor passed to
// tablepack.NewHost.
func New(c *tablepack.Container) *Tables {
	return &Tables{Container: c}
}

// Items returns the Items table, building it on first access.
func (t *Tables) Items() (*Items, error) {
	return tablepack.LoadTable(t.Container, &t.items, ItemsTable, DecodeItems)
}

// Levels returns the Levels table, building it on first access.
func (t *Tables) Levels() (*Levels, error) {
	return tablepack.LoadTable(t.Container, &t.levels, LevelsTable, DecodeLevels)
}

// LoadAll implements tablepack.Schema.
func (t *Tables) LoadAll(load tablepack.LoadFunc) error {
	return errors.Join(
		tablepack.Bind(load, &t.items, ItemsTable, DecodeItems),
		tablepack.Bind(load, &t.levels, LevelsTable, DecodeLevels),
	)
}

// ResolveRefs implements tablepack.Schema.
func (t *Tables) ResolveRefs() error {
	if t.levels == nil {
		return nil
	}
	if t.items == nil {
		return errors.New("sample: levels reference items but the Items table is not loaded")
	}
	return t.levels.resolve(t.items)
}

// ReleaseTables implements tablepack.ReleaseHook.
func (t *Tables) ReleaseTables() {
	t.items = nil
	t.levels = nil
}
