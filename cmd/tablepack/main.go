// Command tablepack packs, inspects, loads and distributes table archives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// CLI is the command-line interface.
type CLI struct {
	LogLevel string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level (${enum})."`

	Pack    PackCmd    `cmd:"" help:"Pack a folder of table files into an archive."`
	Unpack  UnpackCmd  `cmd:"" help:"Extract every table of an archive into a folder."`
	Inspect InspectCmd `cmd:"" help:"List the tables of an archive."`
	Load    LoadCmd    `cmd:"" help:"Load an archive through a container and report memory use."`
	Build   BuildCmd   `cmd:"" help:"Run the merge jobs of a config file."`
	Watch   WatchCmd   `cmd:"" help:"Rebuild merge jobs whenever their table files change."`
	Push    PushCmd    `cmd:"" help:"Push an archive to an OCI registry."`
	Pull    PullCmd    `cmd:"" help:"Pull an archive from an OCI registry."`
}

// runContext is bound into every command's Run method.
type runContext struct {
	ctx    context.Context
	logger *slog.Logger
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "tablepack: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("tablepack"),
		kong.Description("Pack many table files into one archive and load them lazily."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cli.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return kctx.Run(&runContext{ctx: ctx, logger: logger})
}

// newLogger returns a tint logger on stderr; colour is off unless stderr
// is a terminal.
func newLogger(level string) (*slog.Logger, error) {
	var ll slog.Level
	if err := ll.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})), nil
}
