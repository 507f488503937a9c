package builder

import (
	"cmp"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExt is the extension of table files.
const DefaultExt = ".bytes"

// File is one table file found by Scan.
type File struct {
	// Name is the table name: the base name without extension.
	Name string

	// Rel is the slash-separated path relative to the scanned folder.
	Rel string

	// Path is the file path on disk.
	Path string

	// Size is the file size in bytes.
	Size int64
}

// Scan returns every file under dir with extension ext, recursively,
// sorted by relative path. An empty ext means DefaultExt.
func Scan(dir, ext string) ([]File, error) {
	if ext == "" {
		ext = DefaultExt
	}
	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		base := path.Base(rel)
		files = append(files, File{
			Name: strings.TrimSuffix(base, path.Ext(base)),
			Rel:  rel,
			Path: p,
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.SortFunc(files, func(a, b File) int {
		return cmp.Compare(a.Rel, b.Rel)
	})
	return files, nil
}
