package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sambeau/qdp/pkg/qdp"
)

const sampleQDP = `! File comment
READ SERR 1
! First
1 0.5 10
2 NO 20
NO NO NO
! Second
3 0.25 30
`

// testEnv points QDP_CONFIG at a fresh config so the developer's own
// config never leaks into a test.
func testEnv(t *testing.T, configYAML string) func(string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qdp.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return func(key string) string {
		if key == "QDP_CONFIG" {
			return path
		}
		return ""
	}
}

func runCLI(t *testing.T, stdin string, getenv func(string) string, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	err := run(context.Background(), args, strings.NewReader(stdin), stdout, stderr, getenv)
	return stdout.String(), stderr.String(), err
}

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lc.qdp")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	return path
}

func TestRunVersion(t *testing.T) {
	stdout, _, err := runCLI(t, "", func(s string) string { return "" }, "--version")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "qdp version") {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestRunHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "", func(s string) string { return "" }, "--help")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "qdp - Read, convert and browse QDP table files") {
		t.Errorf("expected help output, got %q", stdout)
	}
	for _, want := range []string{"--config", "cat", "export", "QDP_CONFIG"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %s in help, got %q", want, stdout)
		}
	}
}

func TestRunInvalidFlag(t *testing.T) {
	if _, _, err := runCLI(t, "", func(s string) string { return "" }, "--invalid-flag"); err == nil {
		t.Error("expected error for invalid flag")
	}
}

func TestRunCommandErrors(t *testing.T) {
	getenv := testEnv(t, "")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "no command given"},
		{"unknown command", []string{"plot", "x.qdp"}, `unknown command "plot"`},
		{"missing file argument", []string{"show"}, "expected one input file"},
		{"bad delimiter", []string{"show", "--delimiter", "tab", "-"}, "read.delimiter"},
		{"bad format", []string{"dump", "--format", "xml", "-"}, `unknown format "xml"`},
		{"table out of range", []string{"show", "--table", "5", "-"}, "table 5 requested"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, sampleQDP, getenv, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestRunMissingConfig(t *testing.T) {
	_, _, err := runCLI(t, "", func(s string) string { return "" }, "--config", "/nonexistent/config.yaml", "show", "-")
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("expected 'config file not found' error, got %q", err.Error())
	}
}

func TestRunCat(t *testing.T) {
	stdout, stderr, err := runCLI(t, sampleQDP, testEnv(t, ""), "cat", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != sampleQDP {
		t.Errorf("expected canonical output to match input:\n%s\ngot:\n%s", sampleQDP, stdout)
	}
	if stderr != "" {
		t.Errorf("unexpected log output %q", stderr)
	}
}

func TestRunCatOptions(t *testing.T) {
	stdout, _, err := runCLI(t, sampleQDP, testEnv(t, ""),
		"cat", "--table", "1", "--write-delimiter", "comma", "--names", "t,rate", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "! File comment\nREAD SERR 1\n! Second\n3,0.25,30\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestRunCatToCompressedFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clean.qdp.zst")
	_, stderr, err := runCLI(t, sampleQDP, testEnv(t, ""), "cat", "--out", out, "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "[INFO] wrote 2 table(s)") {
		t.Errorf("expected info log, got %q", stderr)
	}

	res, err := qdp.ReadTables(qdp.FromFile(out))
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if len(res.Tables) != 2 {
		t.Errorf("expected 2 tables, got %d", len(res.Tables))
	}
}

func TestRunShowSummary(t *testing.T) {
	stdout, _, err := runCLI(t, sampleQDP, testEnv(t, ""), "show", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<stdin>: 2 table(s)
  ! File comment
table 0: 3 columns, 2 rows
  columns: col1, col1_err, col2
  ! First
table 1: 3 columns, 1 rows
  columns: col1, col1_err, col2
  ! Second
`
	if stdout != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, stdout)
	}
}

func TestRunShowSummaryFile(t *testing.T) {
	path := writeSample(t, sampleQDP)
	stdout, _, err := runCLI(t, "", testEnv(t, ""), "show", "--table", "0", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "lc.qdp (80 B): 2 table(s)") {
		t.Errorf("unexpected header: %q", stdout)
	}
	if strings.Contains(stdout, "table 1:") {
		t.Errorf("expected only table 0, got:\n%s", stdout)
	}
}

func TestRunShowFormats(t *testing.T) {
	getenv := testEnv(t, "read:\n  names: [t, rate]\n")

	stdout, _, err := runCLI(t, sampleQDP, getenv, "show", "--format", "markdown", "--table", "0", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "| t | t\\_err | rate |") || !strings.Contains(stdout, "| 2 |  | 20 |") {
		t.Errorf("unexpected markdown:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, sampleQDP, getenv, "show", "--format", "html", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(stdout, "<table>") != 2 {
		t.Errorf("expected two HTML tables, got:\n%s", stdout)
	}
}

func TestRunDump(t *testing.T) {
	stdout, _, err := runCLI(t, sampleQDP, testEnv(t, ""), "dump", "--format", "json", "--table", "1", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"Second"`) || strings.Contains(stdout, `"First"`) {
		t.Errorf("expected only table 1, got:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, sampleQDP, testEnv(t, ""), "dump", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "initial_comments:\n    - File comment") {
		t.Errorf("unexpected YAML:\n%s", stdout)
	}
	if !strings.Contains(stdout, "values: [0.5, null]") {
		t.Errorf("expected masked value as null:\n%s", stdout)
	}
}

func TestRunExport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lc.db")
	_, stderr, err := runCLI(t, sampleQDP, testEnv(t, ""), "export", "--dsn", dbPath, "--prefix", "lc_", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stderr, "exported 2 table(s) to sqlite") {
		t.Errorf("expected export log, got %q", stderr)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "lc_0"`).Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

const multiCommandQDP = `READ TERR 1
1 0.1 -0.1 2
READ SERR 2
3 0.1 -0.1 4 0.4
`

func TestRunLogsDiagnostics(t *testing.T) {
	_, stderr, err := runCLI(t, multiCommandQDP, testEnv(t, ""), "show", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[WARN] -: line 3: This file contains multiple command blocks. Please verify\n"
	if stderr != want {
		t.Errorf("expected %q, got %q", want, stderr)
	}
}

func TestRunLogsDiagnosticsJSON(t *testing.T) {
	getenv := testEnv(t, "logging:\n  format: json\n")
	_, stderr, err := runCLI(t, multiCommandQDP, getenv, "show", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"level":"warn"`, `"code":"WARN-0001"`, `"line":3`} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected %s in %q", want, stderr)
		}
	}
}

func TestRunQuietSuppressesDiagnostics(t *testing.T) {
	getenv := testEnv(t, "logging:\n  quiet: true\n")
	_, stderr, err := runCLI(t, multiCommandQDP, getenv, "show", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stderr != "" {
		t.Errorf("expected no log output, got %q", stderr)
	}
}

func TestRunInspect(t *testing.T) {
	path := writeSample(t, sampleQDP)
	stdout, _, err := runCLI(t, "tables\ncomments 1\nquit\n", testEnv(t, ""), "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"0: 3 columns, 2 rows  ! First", "Second\n", "Goodbye!"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}
