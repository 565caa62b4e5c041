// Package errors provides structured error types for the QDP reader and writer.
//
// This package defines QDPError, a single error type that carries a catalog
// code, a class, a rendered message and the source position, so callers can
// both display a parse failure and branch on it programmatically.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassFormat    ErrorClass = "format"    // Unparsable values or rows
	ClassSchema    ErrorClass = "schema"    // Column layout problems
	ClassIndex     ErrorClass = "index"     // Out of range table selection
	ClassUndefined ErrorClass = "undefined" // Unknown column or table
	ClassIO        ErrorClass = "io"        // File operations
	ClassDatabase  ErrorClass = "database"  // Export sinks
	ClassWarning   ErrorClass = "warning"   // Recoverable diagnostics
)

// QDPError represents any failure raised while reading or writing QDP text.
type QDPError struct {
	Class   ErrorClass     `json:"class"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hints   []string       `json:"hints,omitempty"`
	Line    int            `json:"line"`   // 1-based line (0 if unknown)
	Column  int            `json:"column"` // 1-based field (0 if unknown)
	File    string         `json:"file,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Cause   error          `json:"-"` // underlying Go error, if any
}

// Error implements the error interface.
func (e *QDPError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *QDPError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		if e.Column > 0 {
			sb.WriteString(fmt.Sprintf("line %d, field %d: ", e.Line, e.Column))
		} else {
			sb.WriteString(fmt.Sprintf("line %d: ", e.Line))
		}
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// Is reports whether target is a QDPError with the same code. It lets callers
// write errors.Is(err, qdperrors.ErrMalformedValue).
func (e *QDPError) Is(target error) bool {
	t, ok := target.(*QDPError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// Unwrap returns the underlying Go error.
func (e *QDPError) Unwrap() error {
	return e.Cause
}

// ToJSON returns the error as JSON bytes.
func (e *QDPError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *QDPError) WithFile(file string) *QDPError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and field set.
func (e *QDPError) WithPosition(line, column int) *QDPError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsWarning returns true for recoverable diagnostics.
func (e *QDPError) IsWarning() bool {
	return e.Class == ClassWarning
}

// Catalog codes.
const (
	CodeMalformedValue        = "QDP-0001"
	CodeMalformedRow          = "QDP-0002"
	CodeColumnCountMismatch   = "QDP-0003"
	CodeTableIndexOutOfRange  = "QDP-0004"
	CodeNoTables              = "QDP-0005"
	CodeUnknownColumn         = "UNDEF-0001"
	CodeIO                    = "IO-0001"
	CodeExport                = "DB-0001"
	CodeMultipleCommandBlocks = "WARN-0001"
	CodeNoTableID             = "WARN-0002"
)

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrMalformedValue       = &QDPError{Code: CodeMalformedValue}
	ErrMalformedRow         = &QDPError{Code: CodeMalformedRow}
	ErrColumnCountMismatch  = &QDPError{Code: CodeColumnCountMismatch}
	ErrTableIndexOutOfRange = &QDPError{Code: CodeTableIndexOutOfRange}
	ErrNoTables             = &QDPError{Code: CodeNoTables}
	ErrUnknownColumn        = &QDPError{Code: CodeUnknownColumn}
)

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	CodeMalformedValue: {
		Class:    ClassFormat,
		Template: "cannot parse '{{.Token}}' as a number",
		Hints:    []string{"missing values are written as NO or nan"},
	},
	CodeMalformedRow: {
		Class:    ClassFormat,
		Template: "{{.Reason}}",
		Hints:    []string{"only trailing fields may be omitted from a row"},
	},
	CodeColumnCountMismatch: {
		Class:    ClassSchema,
		Template: "{{.Reason}}",
	},
	CodeTableIndexOutOfRange: {
		Class:    ClassIndex,
		Template: "table {{.Index}} requested but the input has {{.Count}} table(s)",
	},
	CodeNoTables: {
		Class:    ClassFormat,
		Template: "no data rows found",
	},
	CodeUnknownColumn: {
		Class:    ClassUndefined,
		Template: "column not found: {{.Name}}",
	},
	CodeIO: {
		Class:    ClassIO,
		Template: "failed to {{.Operation}} '{{.Path}}': {{.GoError}}",
	},
	CodeExport: {
		Class:    ClassDatabase,
		Template: "{{.Driver}} {{.Operation}} failed: {{.GoError}}",
	},
	CodeMultipleCommandBlocks: {
		Class:    ClassWarning,
		Template: "This file contains multiple command blocks. Please verify",
	},
	CodeNoTableID: {
		Class:    ClassWarning,
		Template: "table_id not specified. Reading the first available table",
	},
}

// New creates a QDPError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *QDPError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &QDPError{
			Class:   ClassFormat,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &QDPError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a QDPError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *QDPError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewIO wraps a Go I/O error for the given operation and path.
func NewIO(operation, path string, goErr error) *QDPError {
	err := New(CodeIO, map[string]any{
		"Operation": operation,
		"Path":      path,
		"GoError":   goErr.Error(),
	})
	err.Cause = goErr
	return err
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise empty string.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	// Sorted so ties resolve the same way every time.
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	// Short names (1-3): max 1 edit, medium (4-6): 2, longer: 3
	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}

	return bestMatch
}

// NewUnknownColumn creates an unknown column error with an optional
// "Did you mean?" hint drawn from the available names.
func NewUnknownColumn(name string, available []string) *QDPError {
	err := New(CodeUnknownColumn, map[string]any{"Name": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}
	return err
}
