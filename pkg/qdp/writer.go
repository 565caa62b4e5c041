package qdp

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

type writeConfig struct {
	spec    *ErrorSpec
	delim   Delimiter
	initial []string
	hasInit bool
}

// WriteOption configures a write.
type WriteOption func(*writeConfig)

// WithErrorSpec declares the error columns explicitly instead of deriving
// them from the _err, _perr and _nerr column names.
func WithErrorSpec(spec ErrorSpec) WriteOption {
	return func(c *writeConfig) {
		s := spec.Clone()
		c.spec = &s
	}
}

// WithWriteDelimiter writes comma separated rows when d is DelimComma.
func WithWriteDelimiter(d Delimiter) WriteOption {
	return func(c *writeConfig) {
		c.delim = d
	}
}

// WithInitialComments overrides the file level comments taken from the
// first table.
func WithInitialComments(comments ...string) WriteOption {
	return func(c *writeConfig) {
		c.initial = comments
		c.hasInit = true
	}
}

// Writer serializes tables to QDP text.
type Writer struct {
	w   *bufio.Writer
	cfg writeConfig
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer, opts ...WriteOption) *Writer {
	wr := &Writer{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(&wr.cfg)
	}
	return wr
}

// Write emits the header and every table, separated by sentinel rows, and
// flushes. When a table's error declarations differ from those already in
// force, the READ lines that change them are written after the sentinel.
func (wr *Writer) Write(tables []*Table) error {
	if len(tables) == 0 {
		return qdperrors.New(qdperrors.CodeNoTables, nil)
	}

	specs := make([]ErrorSpec, len(tables))
	for i, t := range tables {
		spec, err := wr.resolveSpec(t)
		if err != nil {
			return err
		}
		if err := checkTable(t, spec); err != nil {
			return err
		}
		specs[i] = spec
	}

	changes := make([]ErrorSpec, len(tables))
	changes[0] = specs[0]
	for i := 1; i < len(tables); i++ {
		c, err := specs[i-1].Changes(specs[i])
		if err != nil {
			return err
		}
		changes[i] = c
	}

	initial := tables[0].Meta.InitialComments
	if wr.cfg.hasInit {
		initial = wr.cfg.initial
	}
	wr.writeComments(initial)

	for i, t := range tables {
		if i > 0 {
			wr.writeSentinel(len(tables[i-1].Columns))
		}
		wr.writeCommands(changes[i])
		wr.writeComments(t.Meta.Comments)
		wr.writeRows(t)
	}
	return wr.w.Flush()
}

func (wr *Writer) resolveSpec(t *Table) (ErrorSpec, error) {
	if wr.cfg.spec != nil {
		return *wr.cfg.spec, nil
	}
	return ErrorSpecFromColumns(t.ColumnNames())
}

func (wr *Writer) writeCommands(spec ErrorSpec) {
	for _, cmd := range spec.Commands() {
		wr.w.WriteString(cmd.String())
		wr.w.WriteByte('\n')
	}
}

// checkTable verifies the columns fit the declared layout and share a length.
func checkTable(t *Table, spec ErrorSpec) error {
	if _, err := Layout(spec, len(t.Columns), nil); err != nil {
		return err
	}
	n := t.Len()
	for _, c := range t.Columns {
		if c.Len() != n {
			return mismatch("column %s has %d rows, expected %d", c.Name, c.Len(), n)
		}
	}
	return nil
}

func (wr *Writer) writeComments(comments []string) {
	for _, c := range comments {
		wr.w.WriteString(CommentPrefix)
		if c != "" {
			wr.w.WriteByte(' ')
			wr.w.WriteString(c)
		}
		wr.w.WriteByte('\n')
	}
}

func (wr *Writer) writeSentinel(width int) {
	fields := make([]string, max(width, 1))
	for i := range fields {
		fields[i] = MissingToken
	}
	wr.w.WriteString(strings.Join(fields, wr.sep()))
	wr.w.WriteByte('\n')
}

func (wr *Writer) writeRows(t *Table) {
	fields := make([]string, len(t.Columns))
	for r := 0; r < t.Len(); r++ {
		for i, c := range t.Columns {
			fields[i] = FormatValue(c.Data[r], c.IsMasked(r))
		}
		wr.w.WriteString(strings.Join(fields, wr.sep()))
		wr.w.WriteByte('\n')
	}
}

func (wr *Writer) sep() string {
	if wr.cfg.delim == DelimComma {
		return ","
	}
	return " "
}

// FormatValue renders one cell. Masked cells are NO; numbers use the
// shortest representation that parses back to the same float64.
func FormatValue(v float64, masked bool) string {
	switch {
	case masked:
		return MissingToken
	case math.IsNaN(v):
		return NaNToken
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// WriteTables writes tables to w.
func WriteTables(w io.Writer, tables []*Table, opts ...WriteOption) error {
	return NewWriter(w, opts...).Write(tables)
}

// WriteTable writes a single table to w.
func WriteTable(w io.Writer, t *Table, opts ...WriteOption) error {
	return WriteTables(w, []*Table{t}, opts...)
}

// Format returns tables as QDP text.
func Format(tables []*Table, opts ...WriteOption) (string, error) {
	var sb strings.Builder
	if err := WriteTables(&sb, tables, opts...); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFile writes tables to path, compressing when the name ends in .gz or
// .zst.
func WriteFile(path string, tables []*Table, opts ...WriteOption) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return qdperrors.NewIO("create", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = qdperrors.NewIO("close", path, cerr)
		}
	}()

	var w io.Writer = f
	var closer io.Closer
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz := gzip.NewWriter(f)
		w, closer = gz, gz
	case strings.HasSuffix(path, ".zst"):
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return qdperrors.NewIO("compress", path, zerr)
		}
		w, closer = zw, zw
	}

	if err := WriteTables(w, tables, opts...); err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}
	if closer != nil {
		if err := closer.Close(); err != nil {
			return qdperrors.NewIO("write", path, err)
		}
	}
	return nil
}
