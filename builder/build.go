package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	packcore "github.com/meigma/tablepack/core"
)

// Result reports the outcome of one job.
type Result struct {
	Job       string
	Skipped   bool
	Digest    digest.Digest
	FileCount int
	Size      int
}

type options struct {
	logger      *slog.Logger
	ext         string
	concurrency int
	hash        HashAlgorithm
	level       packcore.CompressionLevel
	force       bool
	debounce    time.Duration
	jobs        []string
	now         func() time.Time
}

// Option configures Build and BuildAll.
type Option func(*options)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithExtension sets the table file extension (default: DefaultExt).
func WithExtension(ext string) Option {
	return func(o *options) {
		o.ext = ext
	}
}

// WithReadConcurrency sets how many table files are read in parallel
// (default: GOMAXPROCS).
func WithReadConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithHash sets the fingerprint algorithm (default: HashSHA256).
func WithHash(algo HashAlgorithm) Option {
	return func(o *options) {
		o.hash = algo
	}
}

// WithCompressionLevel sets the zstd level for jobs with Compress set.
func WithCompressionLevel(level packcore.CompressionLevel) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithForce rebuilds even when the fingerprint is unchanged.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithJobs restricts BuildAll to the named jobs.
func WithJobs(names ...string) Option {
	return func(o *options) {
		o.jobs = append(o.jobs, names...)
	}
}

// WithDebounce sets how long a Watcher waits for changes to settle
// before rebuilding (default: DefaultDebounce).
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// withClock overrides time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{
		ext:         DefaultExt,
		concurrency: runtime.GOMAXPROCS(0),
		hash:        HashSHA256,
		level:       packcore.CompressionDefault,
		debounce:    DefaultDebounce,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// log returns the logger, falling back to a discard logger if nil.
func (o *options) log() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.logger
}

// Build runs one job. On success the job's LastHash, FileCount and
// UpdatedAt are updated; the output is left untouched when the inputs
// are unchanged and the output still exists.
func Build(ctx context.Context, job *Job, opts ...Option) (Result, error) {
	o := newOptions(opts)
	return build(ctx, job, &o)
}

func build(ctx context.Context, job *Job, o *options) (Result, error) {
	res := Result{Job: job.Name}
	logger := o.log().With("job", job.Name)

	info, err := os.Stat(job.InputFolder)
	if err != nil || !info.IsDir() {
		logger.Warn("input folder not found, skipping", "folder", job.InputFolder)
		return res, fmt.Errorf("%w: input folder %s not found", ErrNoInput, job.InputFolder)
	}
	files, err := Scan(job.InputFolder, o.ext)
	if err != nil {
		return res, err
	}
	if len(files) == 0 {
		logger.Warn("no table files found, skipping", "folder", job.InputFolder, "ext", o.ext)
		return res, fmt.Errorf("%w: no %s files in %s", ErrNoInput, o.ext, job.InputFolder)
	}

	data, err := readAll(ctx, files, o.concurrency)
	if err != nil {
		return res, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	dgst, err := Fingerprint(o.hash, names, data)
	if err != nil {
		return res, err
	}
	res.Digest = dgst
	res.FileCount = len(files)

	format := outputFormat(job, o.level)
	if !o.force && job.LastHash == dgst.String() && job.LastOutput == format {
		if _, err := os.Stat(job.OutputFile); err == nil {
			logger.Info("inputs unchanged, skipping", "digest", dgst.String())
			res.Skipped = true
			return res, nil
		}
	}

	tables := make([]packcore.Table, len(files))
	for i := range files {
		tables[i] = packcore.Table{Name: names[i], Data: data[i]}
	}
	archive, err := packcore.Pack(tables)
	if err != nil {
		return res, fmt.Errorf("pack %s: %w", job.Name, err)
	}
	if job.Compress {
		archive, err = packcore.Compress(archive, packcore.CompressWithLevel(o.level))
		if err != nil {
			return res, fmt.Errorf("compress %s: %w", job.Name, err)
		}
	}
	if err := writeFileAtomic(job.OutputFile, archive); err != nil {
		return res, fmt.Errorf("write %s: %w", job.OutputFile, err)
	}

	job.LastHash = dgst.String()
	job.LastOutput = format
	job.FileCount = len(files)
	job.UpdatedAt = o.now().UTC()
	res.Size = len(archive)
	logger.Info("archive written", "output", job.OutputFile, "tables", len(files),
		"size", len(archive), "digest", dgst.String())
	return res, nil
}

// outputFormat names the shape of the archive job writes at level.
func outputFormat(job *Job, level packcore.CompressionLevel) string {
	if !job.Compress {
		return "raw"
	}
	return "zstd-" + level.String()
}

// readAll reads files concurrently, preserving their order.
func readAll(ctx context.Context, files []File, concurrency int) ([][]byte, error) {
	data := make([][]byte, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("read %s: %w", f.Rel, err)
			}
			data[i] = b
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// BuildAll runs every job in cfg in order, or only those named by WithJobs.
// A failing job does not stop the others; all failures except ErrNoInput
// are joined into the returned error. Job state in cfg is updated for every
// job that built.
func BuildAll(ctx context.Context, cfg *Config, opts ...Option) ([]Result, error) {
	o := newOptions(opts)
	selected := make(map[string]bool, len(o.jobs))
	for _, name := range o.jobs {
		if _, ok := cfg.Job(name); !ok {
			return nil, fmt.Errorf("%w: no job named %q", ErrConfig, name)
		}
		selected[name] = true
	}

	results := make([]Result, 0, len(cfg.Jobs))
	var errs []error
	for i := range cfg.Jobs {
		if len(selected) > 0 && !selected[cfg.Jobs[i].Name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := cfg.buildJob(ctx, &cfg.Jobs[i], &o)
		if err != nil && !errors.Is(err, ErrNoInput) {
			o.log().Error("job failed", "job", cfg.Jobs[i].Name, "error", err)
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// buildJob builds job with paths resolved against the config directory and
// copies the recorded state back.
func (c *Config) buildJob(ctx context.Context, job *Job, o *options) (Result, error) {
	run := c.resolved(job)
	res, err := build(ctx, &run, o)
	job.LastHash = run.LastHash
	job.LastOutput = run.LastOutput
	job.FileCount = run.FileCount
	job.UpdatedAt = run.UpdatedAt
	return res, err
}
