package inspect

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/sambeau/qdp/pkg/qdp"
)

const sample = `! File comment
READ TERR 1
! First table
1 0.1 -0.1 5
2 0.2 -0.2 NO
NO NO NO NO
3 0.3 -0.3 7
`

func newSession(t *testing.T) *Session {
	t.Helper()
	res, err := qdp.ReadTables(qdp.FromString(sample), qdp.WithNames("t", "rate"))
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}
	return NewSession(res)
}

func TestExec(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tables", "tables", "0: 4 columns, 2 rows  ! First table\n1: 4 columns, 1 rows\n"},
		{"file comments", "comments", "File comment\n"},
		{"table comments", "comments 0", "First table\n"},
		{"no table comments", "comments 1", "(no comments)\n"},
		{"columns", "columns 0", "t (2 values, 0 missing)\nt_perr (2 values, 0 missing)\nt_nerr (2 values, 0 missing)\nrate (2 values, 1 missing)\n"},
		{"empty", "   ", ""},
		{"case insensitive", "TABLES", "0: 4 columns, 2 rows  ! First table\n1: 4 columns, 1 rows\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newSession(t).Exec(tt.input)
			if got != tt.want {
				t.Errorf("Exec(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExecShow(t *testing.T) {
	got := newSession(t).Exec("show 1")
	if !strings.Contains(got, "| t | t\\_perr | t\\_nerr | rate |") {
		t.Errorf("unexpected table header:\n%s", got)
	}
	if !strings.Contains(got, "| 3 | 0.3 | -0.3 | 7 |") {
		t.Errorf("unexpected table body:\n%s", got)
	}
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"show", "expected a table number"},
		{"show x", `"x" is not a table number`},
		{"columns 5", "table 5 requested but the input has 2 table(s)"},
		{"frobnicate", `Unknown command "frobnicate"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := newSession(t).Exec(tt.input)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Exec(%q) = %q, want it to contain %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQuit(t *testing.T) {
	s := newSession(t)
	if s.Done() {
		t.Fatal("new session should not be done")
	}
	s.Exec("quit")
	if !s.Done() {
		t.Error("expected session to be done after quit")
	}
}

func TestStartWithReader(t *testing.T) {
	res, err := qdp.ReadTables(qdp.FromString(sample))
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	Start(strings.NewReader("comments\nquit\ntables\n"), &out, res)

	got := out.String()
	if !strings.HasPrefix(got, "2 table(s).") {
		t.Errorf("missing banner: %q", got)
	}
	if !strings.Contains(got, "File comment\nGoodbye!\n") {
		t.Errorf("unexpected output: %q", got)
	}
	if strings.Contains(got, "columns, ") {
		t.Error("commands after quit should not run")
	}
}

func TestFilterCompletions(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"co", []string{"columns", "comments"}},
		{"Q", []string{"quit"}},
		{"show ", nil},
		{"zz", nil},
	}
	for _, tt := range tests {
		if got := filterCompletions(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("filterCompletions(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
