// Package tablepack loads configuration tables packed into a single archive.
//
// A [Host] owns at most one live [Container] for a schema. The container is
// created by one of three load modes:
//
//   - Immediate: every table is built now and the archive buffer is freed.
//   - Lazy: only the archive index is parsed; each table is built on first access.
//   - Manual: tables arrive one by one through [Container.AddTableBytes].
//
// Table construction is delegated to schema code (normally generated) that
// implements [Schema]. Generated table accessors call [LoadTable], and
// [Schema.LoadAll] implementations call [Bind] for every table they know.
// Cross-table references are linked by [Container.ResolveAllRefs] once every
// table it could dereference has been built.
//
// # Quick Start
//
//	host := tablepack.NewHost(sample.New)
//	tables, err := host.InitLazy(tablepack.FromArchive(data))
//	if err != nil {
//	    return err
//	}
//	defer tables.Release()
//	items, err := tables.Items()
//
// For low-level archive operations (packing, index parsing, slicing), use the
// [core] subpackage.
//
// A Container is not safe for concurrent use. Host methods are.
package tablepack
