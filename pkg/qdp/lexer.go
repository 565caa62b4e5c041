package qdp

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// LineKind classifies a single line of QDP text.
type LineKind int

const (
	LineBlank LineKind = iota
	LineComment
	LineCommand
	LineSentinel
	LineData
)

// String returns a string representation of the line kind
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineCommand:
		return "command"
	case LineSentinel:
		return "sentinel"
	case LineData:
		return "data"
	default:
		return fmt.Sprintf("LineKind(%d)", k)
	}
}

// Delimiter selects how data fields are separated.
type Delimiter int

const (
	// DelimAuto resolves to DelimComma if the first data line holds a comma,
	// DelimSpace otherwise.
	DelimAuto Delimiter = iota
	DelimSpace
	DelimComma
)

// String returns a string representation of the delimiter
func (d Delimiter) String() string {
	switch d {
	case DelimAuto:
		return "auto"
	case DelimSpace:
		return "space"
	case DelimComma:
		return "comma"
	default:
		return fmt.Sprintf("Delimiter(%d)", d)
	}
}

// ParseDelimiter maps a configuration word to a Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	switch newFolder().fold(strings.TrimSpace(s)) {
	case "", "auto":
		return DelimAuto, nil
	case "space", "whitespace":
		return DelimSpace, nil
	case "comma", ",":
		return DelimComma, nil
	default:
		return DelimAuto, fmt.Errorf("unknown delimiter %q (want auto, space or comma)", s)
	}
}

// RawLine is a classified line.
type RawLine struct {
	Kind    LineKind
	Text    string   // original text
	Payload string   // comment text, or the data fields with any inline comment removed
	Line    int      // 1-based position in the source
	Cmd     *Command // set for Command lines
}

// Classify determines the kind of one line. Under DelimAuto a line holding a
// comma is split on commas when checking for a sentinel.
func Classify(text string, delim Delimiter) RawLine {
	return classify(text, delim, newFolder())
}

func classify(text string, delim Delimiter, f *folder) RawLine {
	rl := RawLine{Kind: LineBlank, Text: text}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return rl
	}

	if strings.HasPrefix(trimmed, CommentPrefix) {
		rl.Kind = LineComment
		rl.Payload = strings.TrimSpace(trimmed[len(CommentPrefix):])
		return rl
	}

	// Inline comments after a command or data row carry no meaning.
	if i := strings.Index(trimmed, CommentPrefix); i >= 0 {
		trimmed = strings.TrimSpace(trimmed[:i])
	}
	rl.Payload = trimmed

	if cmd, ok := parseCommand(trimmed, f); ok {
		rl.Kind = LineCommand
		rl.Cmd = cmd
		return rl
	}

	if delim == DelimAuto && strings.Contains(trimmed, ",") {
		delim = DelimComma
	}
	if isSentinel(trimmed, delim, f) {
		rl.Kind = LineSentinel
		return rl
	}

	rl.Kind = LineData
	return rl
}

// isSentinel reports whether every field is NO.
func isSentinel(s string, delim Delimiter, f *folder) bool {
	fields := splitFields(s, delim)
	if len(fields) == 0 {
		return false
	}
	for _, field := range fields {
		if f.fold(field) != "no" {
			return false
		}
	}
	return true
}

// splitFields splits a data line on the delimiter and trims each field.
// DelimAuto is treated as whitespace.
func splitFields(s string, delim Delimiter) []string {
	if delim != DelimComma {
		return strings.Fields(s)
	}
	fields := strings.Split(s, ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// detectDelimiter resolves DelimAuto from the first data line.
func detectDelimiter(payload string) Delimiter {
	if strings.Contains(payload, ",") {
		return DelimComma
	}
	return DelimSpace
}

// folder case-folds grammar words. A Caser is stateful, so a folder must
// not be shared between goroutines.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	f.caser.Reset()
	return f.caser.String(s)
}
