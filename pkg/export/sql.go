// Package export writes parsed QDP tables to other formats: SQL databases,
// Markdown and HTML tables, and YAML or JSON documents.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/sambeau/qdp/pkg/qdp"
	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// Dialect selects identifier quoting, placeholders and column types.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
	DialectMySQL
)

// ParseDialect maps a driver name from configuration to a dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	default:
		return DialectSQLite, fmt.Errorf("unknown database driver %q (want sqlite, postgres or mysql)", driver)
	}
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

func (d Dialect) String() string {
	return d.DriverName()
}

func (d Dialect) quote(ident string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) realType() string {
	switch d {
	case DialectPostgres:
		return "DOUBLE PRECISION"
	case DialectMySQL:
		return "DOUBLE"
	default:
		return "REAL"
	}
}

// OpenDB opens a database for one of the supported drivers.
func OpenDB(driver, dsn string) (*sql.DB, Dialect, error) {
	d, err := ParseDialect(driver)
	if err != nil {
		return nil, d, err
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, d, dbError(d, "open", err)
	}
	return db, d, nil
}

// SQLExporter copies tables into a database. Table i becomes
// <Prefix><i>; comments go to <Prefix>meta.
type SQLExporter struct {
	DB      *sql.DB
	Dialect Dialect
	Prefix  string
}

// Export replaces the target tables inside one transaction.
func (e *SQLExporter) Export(ctx context.Context, tables []*qdp.Table) error {
	if len(tables) == 0 {
		return qdperrors.New(qdperrors.CodeNoTables, nil)
	}
	prefix := e.Prefix
	if prefix == "" {
		prefix = "qdp_"
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return dbError(e.Dialect, "begin transaction", err)
	}
	defer tx.Rollback()

	for i, t := range tables {
		if err := e.exportTable(ctx, tx, fmt.Sprintf("%s%d", prefix, i), t); err != nil {
			return err
		}
	}
	if err := e.exportMeta(ctx, tx, prefix+"meta", tables); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dbError(e.Dialect, "commit", err)
	}
	return nil
}

func (e *SQLExporter) exportTable(ctx context.Context, tx *sql.Tx, name string, t *qdp.Table) error {
	d := e.Dialect
	if err := e.recreate(ctx, tx, name, columnDefs(d, t)); err != nil {
		return err
	}

	cols := []string{d.quote("row_id")}
	marks := []string{d.placeholder(1)}
	for i, c := range t.Columns {
		cols = append(cols, d.quote(c.Name))
		marks = append(marks, d.placeholder(i+2))
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.quote(name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return dbError(d, "prepare insert into "+name, err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns)+1)
	for r := 0; r < t.Len(); r++ {
		args[0] = r
		for i, c := range t.Columns {
			args[i+1] = cellValue(c, r)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return dbError(d, fmt.Sprintf("insert row %d into %s", r, name), err)
		}
	}
	return nil
}

func columnDefs(d Dialect, t *qdp.Table) []string {
	defs := []string{d.quote("row_id") + " INTEGER"}
	for _, c := range t.Columns {
		defs = append(defs, d.quote(c.Name)+" "+d.realType())
	}
	return defs
}

// exportMeta stores the comments. Initial comments have a NULL table_index.
func (e *SQLExporter) exportMeta(ctx context.Context, tx *sql.Tx, name string, tables []*qdp.Table) error {
	d := e.Dialect
	defs := []string{
		d.quote("table_index") + " INTEGER",
		d.quote("kind") + " VARCHAR(32)",
		d.quote("position") + " INTEGER",
		d.quote("text") + " TEXT",
	}
	if err := e.recreate(ctx, tx, name, defs); err != nil {
		return err
	}

	insertSQL := fmt.Sprintf("INSERT INTO %s (%s, %s, %s, %s) VALUES (%s, %s, %s, %s)",
		d.quote(name),
		d.quote("table_index"), d.quote("kind"), d.quote("position"), d.quote("text"),
		d.placeholder(1), d.placeholder(2), d.placeholder(3), d.placeholder(4))
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return dbError(d, "prepare insert into "+name, err)
	}
	defer stmt.Close()

	for i, c := range tables[0].Meta.InitialComments {
		if _, err := stmt.ExecContext(ctx, nil, "initial_comments", i, c); err != nil {
			return dbError(d, "insert into "+name, err)
		}
	}
	for ti, t := range tables {
		for i, c := range t.Meta.Comments {
			if _, err := stmt.ExecContext(ctx, ti, "comments", i, c); err != nil {
				return dbError(d, "insert into "+name, err)
			}
		}
	}
	return nil
}

func (e *SQLExporter) recreate(ctx context.Context, tx *sql.Tx, name string, defs []string) error {
	d := e.Dialect
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+d.quote(name)); err != nil {
		return dbError(d, "drop table "+name, err)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", d.quote(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return dbError(d, "create table "+name, err)
	}
	return nil
}

// cellValue is the bind argument for row r: nil (NULL) when the cell is
// masked or not a number.
func cellValue(c *qdp.Column, r int) any {
	v, ok := c.At(r)
	if !ok || math.IsNaN(v) {
		return nil
	}
	return v
}

func dbError(d Dialect, op string, err error) *qdperrors.QDPError {
	qe := qdperrors.New(qdperrors.CodeExport, map[string]any{
		"Driver":    d.DriverName(),
		"Operation": op,
		"GoError":   err.Error(),
	})
	qe.Cause = err
	return qe
}
