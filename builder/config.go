package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Job is one merge job: every table file under InputFolder is packed into
// OutputFile.
type Job struct {
	Name        string `yaml:"name"`
	InputFolder string `yaml:"input_folder"`
	OutputFile  string `yaml:"output_file"`

	// Compress wraps the archive in a zstd frame.
	Compress bool `yaml:"compress,omitempty"`

	// LastHash is the fingerprint of the inputs of the last successful build.
	LastHash string `yaml:"last_hash,omitempty"`

	// LastOutput is the output format of the last successful build, "raw"
	// or "zstd-<level>".
	LastOutput string `yaml:"last_output,omitempty"`

	// FileCount is the number of tables in the last successful build.
	FileCount int `yaml:"file_count,omitempty"`

	// UpdatedAt is when the output was last written.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// Config is the merge job file.
type Config struct {
	// AutoGenerate enables rebuilding on change in watch mode.
	AutoGenerate bool  `yaml:"auto_generate"`
	Jobs         []Job `yaml:"jobs"`

	// dir resolves relative job paths; it is the directory of the loaded file.
	dir string
}

// LoadConfig reads a merge job file. Relative job paths are resolved
// against the directory holding path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes and validates a merge job file.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every job is complete and that job names are unique.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Jobs))
	for i, job := range c.Jobs {
		switch {
		case job.Name == "":
			return fmt.Errorf("%w: job %d has no name", ErrConfig, i)
		case job.InputFolder == "":
			return fmt.Errorf("%w: job %q has no input_folder", ErrConfig, job.Name)
		case job.OutputFile == "":
			return fmt.Errorf("%w: job %q has no output_file", ErrConfig, job.Name)
		}
		if _, dup := seen[job.Name]; dup {
			return fmt.Errorf("%w: duplicate job %q", ErrConfig, job.Name)
		}
		seen[job.Name] = struct{}{}
	}
	return nil
}

// Job returns the job with the given name.
func (c *Config) Job(name string) (*Job, bool) {
	for i := range c.Jobs {
		if c.Jobs[i].Name == name {
			return &c.Jobs[i], true
		}
	}
	return nil, false
}

// Save writes the config to path atomically.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// resolve returns p relative to the config directory.
func (c *Config) resolve(p string) string {
	if c.dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.dir, p)
}

// resolved returns a copy of job with its paths resolved.
func (c *Config) resolved(job *Job) Job {
	out := *job
	out.InputFolder = c.resolve(job.InputFolder)
	out.OutputFile = c.resolve(job.OutputFile)
	return out
}
