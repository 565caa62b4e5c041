package export

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/sambeau/qdp/pkg/qdp"
)

// Document is the serializable form of a parsed file.
type Document struct {
	InitialComments []string        `json:"initial_comments" yaml:"initial_comments"`
	Tables          []TableDocument `json:"tables" yaml:"tables"`
}

// TableDocument is one table of a Document.
type TableDocument struct {
	Comments []string         `json:"comments" yaml:"comments"`
	Columns  []ColumnDocument `json:"columns" yaml:"columns"`
}

// ColumnDocument holds a column's values; nil stands for a masked cell.
type ColumnDocument struct {
	Name   string     `json:"name" yaml:"name"`
	Values []*float64 `json:"values" yaml:"values,flow"`
}

// NewDocument converts tables into a Document.
func NewDocument(tables []*qdp.Table) Document {
	doc := Document{
		InitialComments: []string{},
		Tables:          make([]TableDocument, 0, len(tables)),
	}
	if len(tables) > 0 && tables[0].Meta.InitialComments != nil {
		doc.InitialComments = tables[0].Meta.InitialComments
	}

	for _, t := range tables {
		td := TableDocument{
			Comments: t.Meta.Comments,
			Columns:  make([]ColumnDocument, len(t.Columns)),
		}
		if td.Comments == nil {
			td.Comments = []string{}
		}
		for i, c := range t.Columns {
			values := make([]*float64, c.Len())
			for r := range values {
				if v, ok := c.At(r); ok && !math.IsNaN(v) {
					values[r] = &v
				}
			}
			td.Columns[i] = ColumnDocument{Name: c.Name, Values: values}
		}
		doc.Tables = append(doc.Tables, td)
	}
	return doc
}

// YAML dumps tables as a YAML document.
func YAML(tables []*qdp.Table) ([]byte, error) {
	return yaml.Marshal(NewDocument(tables))
}

// JSON dumps tables as indented JSON.
func JSON(tables []*qdp.Table) ([]byte, error) {
	return json.MarshalIndent(NewDocument(tables), "", "  ")
}
