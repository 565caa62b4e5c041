package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sambeau/qdp/config"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("qdp", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.String("config", "", "Path to config file")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "qdp version %s\n", Version)
		return nil
	}

	if flags.NArg() == 0 {
		printUsage(stderr)
		return fmt.Errorf("no command given")
	}

	cmd, ok := commands[flags.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q (run 'qdp --help' for a list)", flags.Arg(0))
	}

	// Set up signal handling for graceful shutdown of watch and inspect
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, err := config.LoadOrDefaults(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a := &app{
		cfg:    cfg,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	return cmd(ctx, a, flags.Args()[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `qdp - Read, convert and browse QDP table files

Usage:
  qdp [options] <command> [command options] FILE

Commands:
  cat       Re-emit the tables as canonical QDP text
  show      Summarize the tables, or render one as Markdown or HTML
  dump      Dump the tables as YAML or JSON
  export    Copy the tables into a SQLite, PostgreSQL or MySQL database
  watch     Show a summary again every time the file changes
  inspect   Browse the tables interactively

Options:
  --config PATH    Path to config file (default: auto-detect)
  --version        Show version
  --help           Show this help

Read options (all commands):
  --names a,b,c        Base column names
  --delimiter D        auto, space or comma
  --table N            Use only table N (0-based)

FILE may be "-" for standard input. Names ending in .gz or .zst are
decompressed.

Config Resolution:
  1. --config flag
  2. QDP_CONFIG environment variable
  3. ./qdp.yaml or ./qdp.toml
  4. ~/.config/qdp/qdp.yaml

Examples:
  qdp show lc.qdp                          Summarize every table
  qdp show --format markdown --table 1 lc.qdp
  qdp cat --names MJD,Rate --out clean.qdp.gz lc.qdp
  qdp dump --format json lc.qdp
  qdp export --driver sqlite --dsn lc.db lc.qdp

`)
}
