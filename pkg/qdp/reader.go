package qdp

import (
	"fmt"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// Diagnostic is a recoverable problem noticed while reading.
type Diagnostic struct {
	Code    string
	Message string
	Line    int // 0 when not tied to a line
}

func newDiagnostic(code string, line int) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: qdperrors.New(code, nil).Message,
		Line:    line,
	}
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

// Result holds every table of one input plus the diagnostics raised while
// reading it.
type Result struct {
	Tables          []*Table
	InitialComments []string
	Diagnostics     []Diagnostic
}

// HasDiagnostic reports whether a diagnostic with code was raised.
func (r *Result) HasDiagnostic(code string) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

type readConfig struct {
	names      []string
	delim      Delimiter
	tableID    int
	hasTableID bool
}

// Option configures a read.
type Option func(*readConfig)

// WithNames names the base columns in order. Unnamed base columns are
// called col1, col2, ...
func WithNames(names ...string) Option {
	return func(c *readConfig) {
		c.names = names
	}
}

// WithDelimiter fixes the field delimiter instead of detecting it.
func WithDelimiter(d Delimiter) Option {
	return func(c *readConfig) {
		c.delim = d
	}
}

// WithTableID selects a table by 0-based position for ReadTable.
func WithTableID(id int) Option {
	return func(c *readConfig) {
		c.tableID = id
		c.hasTableID = true
	}
}

// ReadTables parses every table of src.
func ReadTables(src Source, opts ...Option) (*Result, error) {
	cfg := &readConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	lines, err := src.Lines()
	if err != nil {
		return nil, err
	}

	p, err := parseLines(lines, cfg.delim)
	if err != nil {
		return nil, withSource(err, src)
	}

	res := &Result{
		InitialComments: p.initial,
		Diagnostics:     p.diags,
	}
	for _, b := range p.blocks {
		t, err := buildTable(b, cfg.names, p.initial)
		if err != nil {
			return nil, withSource(err, src)
		}
		res.Tables = append(res.Tables, t)
	}
	return res, nil
}

// ReadTable parses src and returns one table. Without WithTableID the first
// table is returned, with a diagnostic if there are others.
func ReadTable(src Source, opts ...Option) (*Table, []Diagnostic, error) {
	cfg := &readConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	res, err := ReadTables(src, opts...)
	if err != nil {
		return nil, nil, err
	}
	t, err := res.Select(cfg.tableID, cfg.hasTableID)
	if err != nil {
		return nil, res.Diagnostics, withSource(err, src)
	}
	return t, res.Diagnostics, nil
}

// Select picks table id. When explicit is false and more than one table
// exists, a NoTableID diagnostic is recorded on the result once.
func (r *Result) Select(id int, explicit bool) (*Table, error) {
	if len(r.Tables) == 0 {
		return nil, qdperrors.New(qdperrors.CodeNoTables, nil)
	}
	if !explicit {
		if len(r.Tables) > 1 && !r.HasDiagnostic(qdperrors.CodeNoTableID) {
			r.Diagnostics = append(r.Diagnostics, newDiagnostic(qdperrors.CodeNoTableID, 0))
		}
		id = 0
	}
	if id < 0 || id >= len(r.Tables) {
		return nil, qdperrors.New(qdperrors.CodeTableIndexOutOfRange, map[string]any{
			"Index": id,
			"Count": len(r.Tables),
		})
	}
	return r.Tables[id], nil
}

func withSource(err error, src Source) error {
	qe, ok := err.(*qdperrors.QDPError)
	if !ok || src.Name() == "" || qe.File != "" {
		return err
	}
	return qe.WithFile(src.Name())
}
