package qdp

import (
	"math"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// Value is one parsed field: a number, or a missing marker.
type Value struct {
	Float   float64
	Missing bool
}

// missingValue is what NO, nan and omitted trailing fields read as.
var missingValue = Value{Float: math.NaN(), Missing: true}

// Column is a named masked float64 column. Mask[i] is true where the value
// is missing.
type Column struct {
	Name string
	Data []float64
	Mask []bool
}

// NewColumn creates a column. A nil mask means nothing is masked.
func NewColumn(name string, data []float64, mask []bool) *Column {
	if mask == nil {
		mask = make([]bool, len(data))
	}
	return &Column{Name: name, Data: data, Mask: mask}
}

// Len returns the number of rows.
func (c *Column) Len() int {
	return len(c.Data)
}

// IsMasked reports whether row i is missing.
func (c *Column) IsMasked(i int) bool {
	return i < len(c.Mask) && c.Mask[i]
}

// At returns the value at row i and false if it is missing.
func (c *Column) At(i int) (float64, bool) {
	if c.IsMasked(i) {
		return c.Data[i], false
	}
	return c.Data[i], true
}

// Meta is the table metadata carried through a read/write cycle.
type Meta struct {
	InitialComments []string // shared by every table of a file
	Comments        []string // specific to this table
}

// Map exposes the metadata under the keys used by generic table containers.
func (m Meta) Map() map[string][]string {
	return map[string][]string{
		"initial_comments": m.InitialComments,
		"comments":         m.Comments,
	}
}

// Table is an ordered set of equal-length columns, base and error columns
// interleaved in declaration order.
type Table struct {
	Columns []*Column
	Meta    Meta
}

// NewTable creates a table from columns.
func NewTable(cols ...*Column) *Table {
	return &Table{Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, error) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, qdperrors.NewUnknownColumn(name, t.ColumnNames())
}

// buildTable assembles one Table from a closed block.
func buildTable(b *Block, names []string, initial []string) (*Table, error) {
	width := b.Width()
	slots, err := Layout(b.Spec, width, names)
	if err != nil {
		if qe, ok := err.(*qdperrors.QDPError); ok {
			return nil, qe.WithPosition(b.StartLine, 0)
		}
		return nil, err
	}

	cols := make([]*Column, len(slots))
	for i, slot := range slots {
		cols[i] = &Column{
			Name: slot.Name,
			Data: make([]float64, len(b.Rows)),
			Mask: make([]bool, len(b.Rows)),
		}
	}
	for r, row := range b.Rows {
		for i, slot := range slots {
			v := missingValue
			if slot.Position < len(row.Values) {
				v = row.Values[slot.Position]
			}
			cols[i].Data[r] = v.Float
			cols[i].Mask[r] = v.Missing
		}
	}

	return &Table{
		Columns: cols,
		Meta: Meta{
			InitialComments: initial,
			Comments:        b.Comments,
		},
	}, nil
}
