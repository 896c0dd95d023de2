package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mmcdole/baldr/internal/adapter"
)

// Version is set at build time via -ldflags
var Version = "dev"

const usage = `baldr resolves media addresses (ref:NAME, uuid:ID) into assets and samples.

Usage:
  baldr [flags] <command> [args]

Commands:
  resolve URI...          resolve addresses and everything they reference
  sample URI[#NAME]       show one sample, or all samples of an asset
  parts URI#SELECTOR      list the part locators of a multi-part asset
  search QUERY [URI...]   search the index, or the assets reachable from URIs
  play URI[#NAME]         play a sample in an external player
  import PATH...          add metadata files to the local index
  serve                   serve the local index over HTTP
  probe [URL]             check a media server
  config save             write the effective configuration
  version                 print version

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("baldr", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	adapter.AddFlags(flags)
	asJSON := flags.Bool("json", false, "print results as JSON")
	showVersion := flags.BoolP("version", "v", false, "print version")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "baldr %s\n", Version)
		return nil
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return pflag.ErrHelp
	}

	// Missing .env is fine
	_ = godotenv.Load()

	cfg, err := adapter.LoadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Debug("starting baldr", "version", Version, "source", cfg.Server.Type)

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    newPrinter(stdout, *asJSON),
	}
	defer a.close()

	name, rest := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		flags.Usage()
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, a, rest)
}
