package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/meigma/tablepack"
	packcore "github.com/meigma/tablepack/core"
)

// rawTable is a table kept as an owned copy of its bytes.
type rawTable struct {
	data []byte
}

func newRawTable(v tablepack.View) (*rawTable, error) {
	return &rawTable{data: v.Clone()}, nil
}

// rawSchema loads every table it is told about as raw bytes.
type rawSchema struct {
	*tablepack.Container

	names  []string
	tables map[string]*rawTable
}

func newRawSchema(c *tablepack.Container) *rawSchema {
	return &rawSchema{
		Container: c,
		names:     c.PendingTables(),
		tables:    make(map[string]*rawTable),
	}
}

// Table returns the named table, building it on first access.
func (s *rawSchema) Table(name string) (*rawTable, error) {
	slot := s.tables[name]
	t, err := tablepack.LoadTable(s.Container, &slot, name, newRawTable)
	if t != nil {
		s.tables[name] = t
	}
	return t, err
}

func (s *rawSchema) LoadAll(load tablepack.LoadFunc) error {
	var errs []error
	for _, name := range s.names {
		slot := s.tables[name]
		if err := tablepack.Bind(load, &slot, name, newRawTable); err != nil {
			errs = append(errs, err)
		}
		if slot != nil {
			s.tables[name] = slot
		}
	}
	return errors.Join(errs...)
}

func (s *rawSchema) ResolveRefs() error {
	return nil
}

func (s *rawSchema) ReleaseTables() {
	clear(s.tables)
}

// LoadCmd loads an archive through a container and prints diagnostics
// after each step.
type LoadCmd struct {
	Archive string   `arg:"" type:"existingfile" help:"Archive to load (raw or zstd)."`
	Mode    string   `default:"lazy" enum:"immediate,lazy,manual" help:"Load mode (${enum})."`
	Table   []string `short:"t" help:"Tables to access before resolving references."`
}

func (c *LoadCmd) Run(rc *runContext) error {
	data, err := os.ReadFile(c.Archive)
	if err != nil {
		return err
	}
	src := tablepack.FromArchive(data)
	if packcore.IsCompressed(data) {
		src = tablepack.FromCompressed(data)
	}

	host := tablepack.NewHost(newRawSchema, tablepack.WithLogger(rc.logger))
	var s *rawSchema
	switch c.Mode {
	case "immediate":
		s, err = host.InitImmediate(src, true)
	case "lazy":
		s, err = host.InitLazy(src)
	case "manual":
		s, err = c.initManual(host, data)
	}
	if err != nil {
		return err
	}
	defer s.Release()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tMODE\tRAW\tPENDING BYTES\tPENDING\tLOADED")
	report := func(step string) {
		m := s.MemoryInfo()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", step, s.Mode(),
			m.RawBytesSize, m.PendingBytesSize, m.PendingTableCount, m.LoadedTableCount)
	}

	report("init")
	for _, name := range c.Table {
		t, err := s.Table(name)
		if err != nil {
			rc.logger.Warn("table access failed", "table", name, "error", err)
			continue
		}
		report(fmt.Sprintf("access %s (%d bytes)", name, len(t.data)))
	}
	if !s.IsRefResolved() {
		if err := s.ResolveAllRefs(false); err != nil {
			return err
		}
		report("resolve refs")
	}
	return tw.Flush()
}

// initManual streams every table of the archive into a Manual container.
func (c *LoadCmd) initManual(host *tablepack.Host[*rawSchema], data []byte) (*rawSchema, error) {
	archive := data
	if packcore.IsCompressed(data) {
		var err error
		if archive, err = packcore.Decompress(data); err != nil {
			return nil, err
		}
	}
	tables, err := packcore.UnpackTables(archive)
	if err != nil {
		return nil, err
	}
	s, err := host.InitManual()
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if len(t.Data) == 0 {
			continue
		}
		if err := s.AddTableBytes(t.Name, t.Data); err != nil {
			s.Release()
			return nil, err
		}
		s.names = append(s.names, t.Name)
	}
	return s, nil
}
