package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sambeau/qdp/config"
	"github.com/sambeau/qdp/pkg/export"
	"github.com/sambeau/qdp/pkg/inspect"
	"github.com/sambeau/qdp/pkg/qdp"
	"github.com/sambeau/qdp/pkg/watch"
)

// app carries what every command needs
type app struct {
	cfg    *config.Config
	log    *logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"cat":     runCat,
	"show":    runShow,
	"dump":    runDump,
	"export":  runExport,
	"watch":   runWatch,
	"inspect": runInspect,
}

// readFlags are the reader overrides shared by every command
type readFlags struct {
	names     *string
	delimiter *string
	table     *int
}

func addReadFlags(fs *flag.FlagSet) *readFlags {
	return &readFlags{
		names:     fs.String("names", "", "Comma-separated base column names"),
		delimiter: fs.String("delimiter", "", "Field delimiter: auto, space or comma"),
		table:     fs.Int("table", -1, "Use only table N (0-based)"),
	}
}

func (rf *readFlags) apply(cfg *config.Config) {
	if *rf.names != "" {
		cfg.Read.Names = splitList(*rf.names)
	}
	if *rf.delimiter != "" {
		cfg.Read.Delimiter = *rf.delimiter
	}
	if *rf.table >= 0 {
		id := *rf.table
		cfg.Read.TableID = &id
	}
}

// parseCommand parses a command's flags, applies the overrides, validates
// the result and returns the input file argument.
func (a *app) parseCommand(fs *flag.FlagSet, rf *readFlags, args []string, override func()) (string, error) {
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected one input file, got %d", fs.Name(), fs.NArg())
	}

	rf.apply(a.cfg)
	if override != nil {
		override()
	}
	if err := config.Validate(a.cfg); err != nil {
		return "", fmt.Errorf("config validation: %w", err)
	}

	l, err := newLogger(a.cfg.Logging, a.stdout, a.stderr)
	if err != nil {
		return "", err
	}
	a.log = l
	return fs.Arg(0), nil
}

func (a *app) source(path string) qdp.Source {
	if path == "-" {
		return qdp.FromReader(a.stdin)
	}
	return qdp.FromFile(path)
}

// read parses path and logs its diagnostics.
func (a *app) read(path string) (*qdp.Result, error) {
	opts, err := a.cfg.ReadOptions()
	if err != nil {
		return nil, err
	}
	res, err := qdp.ReadTables(a.source(path), opts...)
	if err != nil {
		return nil, err
	}
	a.log.logDiagnostics(path, res.Diagnostics)
	return res, nil
}

// selected returns the table chosen by table_id, or every table.
func (a *app) selected(res *qdp.Result) ([]*qdp.Table, error) {
	if a.cfg.Read.TableID == nil {
		return res.Tables, nil
	}
	t, err := res.Select(*a.cfg.Read.TableID, true)
	if err != nil {
		return nil, err
	}
	return []*qdp.Table{t}, nil
}

func runCat(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cat", flag.ContinueOnError)
	rf := addReadFlags(fs)
	out := fs.String("out", "", "Write to PATH instead of stdout (.gz and .zst are compressed)")
	writeDelim := fs.String("write-delimiter", "", "Output delimiter: space or comma")
	terr := fs.String("terr", "", "Comma-separated base columns with asymmetric errors")
	serr := fs.String("serr", "", "Comma-separated base columns with symmetric errors")

	var parseErr error
	path, err := a.parseCommand(fs, rf, args, func() {
		if *writeDelim != "" {
			a.cfg.Write.Delimiter = *writeDelim
		}
		if *terr != "" {
			a.cfg.Write.Terr, parseErr = splitInts(*terr)
		}
		if *serr != "" && parseErr == nil {
			a.cfg.Write.Serr, parseErr = splitInts(*serr)
		}
	})
	if err != nil {
		return err
	}
	defer a.log.Close()
	if parseErr != nil {
		return parseErr
	}

	res, err := a.read(path)
	if err != nil {
		return err
	}
	tables, err := a.selected(res)
	if err != nil {
		return err
	}
	opts, err := a.cfg.WriteOptions()
	if err != nil {
		return err
	}

	if *out != "" {
		if err := qdp.WriteFile(*out, tables, opts...); err != nil {
			return err
		}
		a.log.logInfo("wrote %d table(s) to %s", len(tables), *out)
		return nil
	}
	return qdp.WriteTables(a.stdout, tables, opts...)
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	rf := addReadFlags(fs)
	format := fs.String("format", "summary", "Output format: summary, markdown or html")

	path, err := a.parseCommand(fs, rf, args, nil)
	if err != nil {
		return err
	}
	defer a.log.Close()

	res, err := a.read(path)
	if err != nil {
		return err
	}
	tables, err := a.selected(res)
	if err != nil {
		return err
	}

	switch *format {
	case "summary":
		writeSummary(a.stdout, path, res, tables)
	case "markdown", "md":
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			io.WriteString(a.stdout, export.Markdown(t))
		}
	case "html":
		for _, t := range tables {
			html, err := export.HTML(t)
			if err != nil {
				return err
			}
			io.WriteString(a.stdout, html)
		}
	default:
		return fmt.Errorf("show: unknown format %q (want summary, markdown or html)", *format)
	}
	return nil
}

// writeSummary prints one line per table, with counts grouped for the
// English locale.
func writeSummary(w io.Writer, path string, res *qdp.Result, tables []*qdp.Table) {
	p := message.NewPrinter(language.English)

	name := path
	if path == "-" {
		name = "<stdin>"
	} else if info, err := os.Stat(path); err == nil {
		name = fmt.Sprintf("%s (%s)", filepath.Base(path), humanize.Bytes(uint64(info.Size())))
	}
	p.Fprintf(w, "%s: %d table(s)\n", name, len(res.Tables))
	for _, c := range res.InitialComments {
		fmt.Fprintf(w, "  ! %s\n", c)
	}

	for _, t := range tables {
		idx := indexOf(res.Tables, t)
		p.Fprintf(w, "table %d: %d columns, %d rows\n", idx, len(t.Columns), t.Len())
		fmt.Fprintf(w, "  columns: %s\n", strings.Join(t.ColumnNames(), ", "))
		for _, c := range t.Meta.Comments {
			fmt.Fprintf(w, "  ! %s\n", c)
		}
	}
}

func indexOf(tables []*qdp.Table, t *qdp.Table) int {
	for i, x := range tables {
		if x == t {
			return i
		}
	}
	return -1
}

func runDump(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	rf := addReadFlags(fs)
	format := fs.String("format", "yaml", "Output format: yaml or json")

	path, err := a.parseCommand(fs, rf, args, nil)
	if err != nil {
		return err
	}
	defer a.log.Close()

	res, err := a.read(path)
	if err != nil {
		return err
	}
	tables, err := a.selected(res)
	if err != nil {
		return err
	}

	var data []byte
	switch *format {
	case "yaml", "yml":
		data, err = export.YAML(tables)
	case "json":
		data, err = export.JSON(tables)
		data = append(data, '\n')
	default:
		return fmt.Errorf("dump: unknown format %q (want yaml or json)", *format)
	}
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(data)
	return err
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	rf := addReadFlags(fs)
	driver := fs.String("driver", "", "Database driver: sqlite, postgres or mysql")
	dsn := fs.String("dsn", "", "Data source name")
	prefix := fs.String("prefix", "", "Table name prefix")

	path, err := a.parseCommand(fs, rf, args, func() {
		if *driver != "" {
			a.cfg.Export.Driver = *driver
		}
		if *dsn != "" {
			a.cfg.Export.DSN = *dsn
		}
		if *prefix != "" {
			a.cfg.Export.TablePrefix = *prefix
		}
	})
	if err != nil {
		return err
	}
	defer a.log.Close()

	res, err := a.read(path)
	if err != nil {
		return err
	}
	tables, err := a.selected(res)
	if err != nil {
		return err
	}

	db, dialect, err := export.OpenDB(a.cfg.Export.Driver, a.cfg.Export.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	exp := &export.SQLExporter{DB: db, Dialect: dialect, Prefix: a.cfg.Export.TablePrefix}
	if err := exp.Export(ctx, tables); err != nil {
		return err
	}
	a.log.logInfo("exported %d table(s) to %s", len(tables), dialect)
	return nil
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	rf := addReadFlags(fs)

	path, err := a.parseCommand(fs, rf, args, nil)
	if err != nil {
		return err
	}
	defer a.log.Close()
	if path == "-" {
		return fmt.Errorf("watch: cannot watch standard input")
	}

	opts, err := a.cfg.ReadOptions()
	if err != nil {
		return err
	}

	var w *watch.Watcher
	w, err = watch.New(path, func(res *qdp.Result, err error) {
		if err != nil {
			a.log.logError("%v", err)
			return
		}
		a.log.logDiagnostics(path, res.Diagnostics)
		tables, err := a.selected(res)
		if err != nil {
			a.log.logError("%v", err)
			return
		}
		if n := w.Reloads(); n > 1 {
			a.log.logInfo("reloaded %s (%d)", path, n)
		}
		writeSummary(a.stdout, path, res, tables)
	}, opts...)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func runInspect(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	rf := addReadFlags(fs)

	path, err := a.parseCommand(fs, rf, args, nil)
	if err != nil {
		return err
	}
	defer a.log.Close()
	if path == "-" {
		return fmt.Errorf("inspect: standard input is used for commands, give a file")
	}

	res, err := a.read(path)
	if err != nil {
		return err
	}
	inspect.Start(a.stdin, a.stdout, res)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid column index %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
