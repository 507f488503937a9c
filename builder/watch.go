package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default quiet period before a Watcher rebuilds.
const DefaultDebounce = 200 * time.Millisecond

// Watcher rebuilds jobs when the table files in their input folders change.
//
// Folders created after the watcher starts are watched as well. Rebuilds
// run one at a time on the goroutine that called Run.
type Watcher struct {
	cfg      *Config
	opts     options
	onResult func(Result, error)
	fsw      *fsnotify.Watcher
	roots    []string // absolute input folder per job
	missing  []bool   // input folder did not exist when last checked
}

// NewWatcher watches every job's input folder. While a job's folder does not
// exist, its nearest existing parent is watched instead, and the job is
// built once the folder appears. onResult is called after every rebuild and
// may be nil.
func NewWatcher(cfg *Config, onResult func(Result, error), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		cfg:      cfg,
		opts:     newOptions(opts),
		onResult: onResult,
		fsw:      fsw,
		roots:    make([]string, len(cfg.Jobs)),
		missing:  make([]bool, len(cfg.Jobs)),
	}
	for i := range cfg.Jobs {
		root, err := filepath.Abs(cfg.resolve(cfg.Jobs[i].InputFolder))
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		w.roots[i] = root
		found, err := w.watchRoot(root)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		if !found {
			w.missing[i] = true
			w.log().Warn("input folder not found, waiting for it", "job", cfg.Jobs[i].Name, "folder", root)
		}
	}
	return w, nil
}

func (w *Watcher) log() *slog.Logger {
	return w.opts.log()
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// watchRoot watches the tree at root and reports true. If root does not
// exist it watches the nearest existing parent instead and reports false.
func (w *Watcher) watchRoot(root string) (bool, error) {
	for {
		err := w.addTree(root)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
		dir := nearestDir(root)
		if dir == "" {
			return false, nil
		}
		if err := w.fsw.Add(dir); err != nil {
			return false, fmt.Errorf("watch %s: %w", dir, err)
		}
		// A folder created before the watch took effect sends no event.
		if nearestDir(root) == dir {
			return false, nil
		}
	}
}

// nearestDir returns the closest existing directory at or above p, or ""
// if there is none.
func nearestDir(p string) string {
	for {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return ""
		}
		p = parent
	}
}

// Run handles events until ctx is done and returns ctx.Err().
// It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	dirty := make(map[int]struct{})
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("builder: watcher closed")
			}
			if w.handle(event, dirty) {
				timer.Reset(w.opts.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("builder: watcher closed")
			}
			w.log().Warn("error watching input folders", "error", err)
		case <-timer.C:
			w.rebuild(ctx, dirty)
		}
	}
}

// handle records which jobs event affects and reports whether any did.
func (w *Watcher) handle(event fsnotify.Event, dirty map[int]struct{}) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return w.created(event.Name, dirty)
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !strings.EqualFold(filepath.Ext(event.Name), w.opts.ext) {
		return false
	}
	return w.mark(event.Name, dirty)
}

// created handles a new directory. Inside an input folder it is watched and
// the job marked; above a missing input folder the watch moves down toward it.
func (w *Watcher) created(dir string, dirty map[int]struct{}) bool {
	marked := false
	for i, root := range w.roots {
		switch {
		case within(root, dir):
			if err := w.addTree(dir); err != nil {
				w.log().Warn("failed to watch new folder", "folder", dir, "error", err)
			}
			w.missing[i] = false
		case w.missing[i] && within(dir, root):
			found, err := w.watchRoot(root)
			if err != nil {
				w.log().Warn("failed to watch new folder", "folder", dir, "error", err)
				continue
			}
			if !found {
				continue
			}
			w.missing[i] = false
		default:
			continue
		}
		// Files may have landed before the watch was added.
		dirty[i] = struct{}{}
		marked = true
	}
	return marked
}

// mark flags every job whose input folder contains p.
func (w *Watcher) mark(p string, dirty map[int]struct{}) bool {
	marked := false
	for i, root := range w.roots {
		if !within(root, p) {
			continue
		}
		dirty[i] = struct{}{}
		marked = true
	}
	return marked
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) rebuild(ctx context.Context, dirty map[int]struct{}) {
	for i := range w.cfg.Jobs {
		if _, ok := dirty[i]; !ok {
			continue
		}
		delete(dirty, i)
		job := &w.cfg.Jobs[i]
		w.log().Debug("inputs changed, rebuilding", "job", job.Name)
		res, err := w.cfg.buildJob(ctx, job, &w.opts)
		if err != nil && !errors.Is(err, ErrNoInput) {
			w.log().Error("job failed", "job", job.Name, "error", err)
		}
		if w.onResult != nil {
			w.onResult(res, err)
		}
	}
}
