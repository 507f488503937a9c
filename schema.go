package tablepack

import "fmt"

// LoadFunc returns the view of a pending table and marks it loaded.
// It returns false when the table is absent or was already taken.
type LoadFunc func(name string) (View, bool)

// Factory builds a table object from its bytes.
//
// The View is only valid during the call; the factory must copy out
// everything it keeps.
type Factory[T any] func(View) (*T, error)

// Schema is implemented by per-schema table code, normally generated.
type Schema interface {
	// LoadAll builds every table that load can still supply.
	// Implementations call Bind once per table.
	LoadAll(load LoadFunc) error

	// ResolveRefs links cross-table identifiers into direct references.
	// It is only called once every pending table has been loaded.
	ResolveRefs() error
}

// ReleaseHook is optionally implemented by a Schema that wants to drop its
// table objects when its container is released.
type ReleaseHook interface {
	ReleaseTables()
}

// Bind builds the table name into slot unless slot is already populated.
//
// A table that load cannot supply is skipped and slot stays nil. Factory
// errors are returned; the table's bytes are consumed either way.
func Bind[T any](load LoadFunc, slot **T, name string, factory Factory[T]) error {
	if *slot != nil {
		return nil
	}
	view, ok := load(name)
	if !ok {
		return nil
	}
	table, err := factory(view)
	if err != nil {
		return fmt.Errorf("tablepack: build table %q: %w", name, err)
	}
	*slot = table
	return nil
}

// LoadTable is the memoized accessor used by generated table properties.
//
// If slot already holds a table it is returned unchanged. Otherwise the
// table's bytes are taken from c (marking it loaded) and passed to factory.
// A missing table returns ErrNotFound and leaves slot nil; the rest of the
// container stays usable.
func LoadTable[T any](c *Container, slot **T, name string, factory Factory[T]) (*T, error) {
	if *slot != nil {
		return *slot, nil
	}
	if c.mode == ModeNone {
		return nil, fmt.Errorf("%w: container is released", ErrState)
	}
	view, ok := c.take(name)
	if !ok {
		c.log().Error("table not found", "table", name, "already_loaded", c.IsTableLoaded(name))
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	table, err := factory(view)
	if err != nil {
		return nil, fmt.Errorf("tablepack: build table %q: %w", name, err)
	}
	*slot = table
	return table, nil
}
