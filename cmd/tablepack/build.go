package main

import (
	"fmt"

	"github.com/meigma/tablepack/builder"
)

// JobFlags are shared by build and watch.
type JobFlags struct {
	Config string `short:"c" default:"merge.yaml" type:"path" help:"Merge job config file."`
	Ext    string `default:".bytes" help:"Table file extension."`
	Hash   string `default:"sha256" enum:"sha256,blake3" help:"Fingerprint algorithm (${enum})."`
}

func (f *JobFlags) options(rc *runContext) ([]builder.Option, error) {
	algo, err := builder.ParseHashAlgorithm(f.Hash)
	if err != nil {
		return nil, err
	}
	return []builder.Option{
		builder.WithLogger(rc.logger),
		builder.WithExtension(f.Ext),
		builder.WithHash(algo),
	}, nil
}

// BuildCmd runs merge jobs once.
type BuildCmd struct {
	JobFlags `embed:""`

	Job   string `short:"j" help:"Run only this job."`
	Force bool   `help:"Rebuild even when inputs are unchanged."`
}

func (c *BuildCmd) Run(rc *runContext) error {
	cfg, err := builder.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	opts, err := c.options(rc)
	if err != nil {
		return err
	}
	opts = append(opts, builder.WithForce(c.Force))
	if c.Job != "" {
		opts = append(opts, builder.WithJobs(c.Job))
	}

	results, buildErr := builder.BuildAll(rc.ctx, cfg, opts...)
	for _, res := range results {
		printResult(res)
	}
	if err := cfg.Save(c.Config); err != nil {
		return err
	}
	return buildErr
}

// WatchCmd rebuilds jobs on change until interrupted.
type WatchCmd struct {
	JobFlags `embed:""`
}

func (c *WatchCmd) Run(rc *runContext) error {
	cfg, err := builder.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if !cfg.AutoGenerate {
		rc.logger.Warn("auto_generate is off in config, nothing to watch", "config", c.Config)
		return nil
	}
	opts, err := c.options(rc)
	if err != nil {
		return err
	}

	// Build once so outputs match inputs before watching.
	results, err := builder.BuildAll(rc.ctx, cfg, opts...)
	for _, res := range results {
		printResult(res)
	}
	if err != nil {
		rc.logger.Error("initial build failed", "error", err)
	}
	if err := cfg.Save(c.Config); err != nil {
		return err
	}

	w, err := builder.NewWatcher(cfg, func(res builder.Result, err error) {
		if err != nil {
			return
		}
		printResult(res)
		if err := cfg.Save(c.Config); err != nil {
			rc.logger.Error("failed to save config", "config", c.Config, "error", err)
		}
	}, opts...)
	if err != nil {
		return err
	}
	rc.logger.Info("watching for changes", "jobs", len(cfg.Jobs))
	return w.Run(rc.ctx)
}

func printResult(res builder.Result) {
	switch {
	case res.Skipped:
		fmt.Printf("%s: up to date (%d tables)\n", res.Job, res.FileCount)
	case res.Digest != "":
		fmt.Printf("%s: wrote %d tables, %d bytes (%s)\n", res.Job, res.FileCount, res.Size, res.Digest)
	}
}
