package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/meigma/tablepack/builder"
	packcore "github.com/meigma/tablepack/core"
)

// PackCmd packs a folder without a merge job config.
type PackCmd struct {
	Dir      string `arg:"" type:"existingdir" help:"Folder holding table files."`
	Output   string `short:"o" required:"" type:"path" help:"Archive to write."`
	Ext      string `default:".bytes" help:"Table file extension."`
	Compress bool   `help:"Wrap the archive in a zstd frame."`
	Hash     string `default:"sha256" enum:"sha256,blake3" help:"Fingerprint algorithm (${enum})."`
}

func (c *PackCmd) Run(rc *runContext) error {
	algo, err := builder.ParseHashAlgorithm(c.Hash)
	if err != nil {
		return err
	}
	job := &builder.Job{Name: filepath.Base(c.Dir), InputFolder: c.Dir, OutputFile: c.Output, Compress: c.Compress}
	res, err := builder.Build(rc.ctx, job,
		builder.WithLogger(rc.logger),
		builder.WithExtension(c.Ext),
		builder.WithHash(algo),
		builder.WithForce(true),
	)
	if err != nil {
		return err
	}
	fmt.Printf("Packed %d tables into %s (%d bytes, %s)\n", res.FileCount, c.Output, res.Size, res.Digest)
	return nil
}

// UnpackCmd extracts every table of an archive.
type UnpackCmd struct {
	Archive string `arg:"" type:"existingfile" help:"Archive to read (raw or zstd)."`
	Output  string `short:"o" required:"" type:"path" help:"Folder to write table files to."`
	Ext     string `default:".bytes" help:"Extension of written table files."`
}

func (c *UnpackCmd) Run(rc *runContext) error {
	archive, err := readArchive(c.Archive)
	if err != nil {
		return err
	}
	idx, err := packcore.ParseIndex(archive)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.Output, 0o750); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	for e := range idx.Entries() {
		view, err := packcore.Slice(archive, e)
		if err != nil {
			return err
		}
		name := filepath.Base(e.Name)
		if name != e.Name || name == "." || name == ".." {
			return fmt.Errorf("table name %q is not a valid file name", e.Name)
		}
		p := filepath.Join(c.Output, name+c.Ext)
		if err := os.WriteFile(p, view.Bytes(), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		rc.logger.Debug("table written", "table", e.Name, "path", p, "size", e.Length)
	}
	fmt.Printf("Unpacked %d tables into %s\n", idx.Len(), c.Output)
	return nil
}

// InspectCmd lists the index of an archive.
type InspectCmd struct {
	Archive string `arg:"" type:"existingfile" help:"Archive to read (raw or zstd)."`
}

func (c *InspectCmd) Run(_ *runContext) error {
	data, err := os.ReadFile(c.Archive)
	if err != nil {
		return err
	}
	compressed := packcore.IsCompressed(data)
	archive := data
	if compressed {
		if archive, err = packcore.Decompress(data); err != nil {
			return err
		}
	}
	idx, err := packcore.ParseIndex(archive)
	if err != nil {
		return err
	}

	fmt.Printf("Archive:    %s\n", c.Archive)
	fmt.Printf("Compressed: %t (%d bytes on disk)\n", compressed, len(data))
	fmt.Printf("Size:       %d bytes\n", len(archive))
	fmt.Printf("Tables:     %d (%d payload bytes)\n\n", idx.Len(), idx.PayloadSize())

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "OFFSET\tLENGTH\tNAME\t")
	for e := range idx.Entries() {
		fmt.Fprintf(tw, "%d\t%d\t%s\t\n", e.Offset, e.Length, e.Name)
	}
	return tw.Flush()
}

// readArchive reads a raw or zstd archive from path.
func readArchive(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if packcore.IsCompressed(data) {
		return packcore.Decompress(data)
	}
	return data, nil
}
