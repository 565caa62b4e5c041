// Package inspect is an interactive browser for the tables of a parsed QDP
// file.
package inspect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/sambeau/qdp/pkg/export"
	"github.com/sambeau/qdp/pkg/qdp"
)

const PROMPT = "qdp> "

var commandWords = []string{"tables", "show", "columns", "comments", "help", "quit", "exit"}

const helpText = `Commands:
  tables          list the tables
  show <n>        print table n as a Markdown table
  columns <n>     list the columns of table n
  comments [n]    print the comments of table n, or the file comments
  help            show this help
  quit            leave
`

// Session holds the browsing state. Exec is independent of any terminal.
type Session struct {
	result *qdp.Result
	done   bool
}

// NewSession creates a session over a parsed file.
func NewSession(res *qdp.Result) *Session {
	return &Session{result: res}
}

// Done reports whether quit was requested.
func (s *Session) Done() bool {
	return s.done
}

// Exec runs one command line and returns what it prints.
func (s *Session) Exec(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		s.done = true
		return "Goodbye!\n"
	case "help", "?":
		return helpText
	case "tables":
		return s.listTables()
	case "comments":
		if len(args) == 0 {
			return joinLines(s.result.InitialComments, "(no file comments)")
		}
	}

	switch cmd {
	case "show", "columns", "comments":
		t, err := s.table(args)
		if err != nil {
			return fmt.Sprintf("Error: %v\n", err)
		}
		switch cmd {
		case "show":
			return export.Markdown(t)
		case "columns":
			return describeColumns(t)
		default:
			return joinLines(t.Meta.Comments, "(no comments)")
		}
	}

	return fmt.Sprintf("Unknown command %q. Type 'help' for commands.\n", fields[0])
}

func (s *Session) table(args []string) (*qdp.Table, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected a table number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("%q is not a table number", args[0])
	}
	return s.result.Select(n, true)
}

func (s *Session) listTables() string {
	if len(s.result.Tables) == 0 {
		return "(no tables)\n"
	}
	var sb strings.Builder
	for i, t := range s.result.Tables {
		fmt.Fprintf(&sb, "%d: %d columns, %d rows", i, len(t.Columns), t.Len())
		if len(t.Meta.Comments) > 0 {
			fmt.Fprintf(&sb, "  ! %s", t.Meta.Comments[0])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func describeColumns(t *qdp.Table) string {
	var sb strings.Builder
	for _, c := range t.Columns {
		masked := 0
		for i := 0; i < c.Len(); i++ {
			if c.IsMasked(i) {
				masked++
			}
		}
		fmt.Fprintf(&sb, "%s (%d values, %d missing)\n", c.Name, c.Len(), masked)
	}
	return sb.String()
}

func joinLines(lines []string, empty string) string {
	if len(lines) == 0 {
		return empty + "\n"
	}
	return strings.Join(lines, "\n") + "\n"
}

// Start runs the browser. On the process's standard input it uses liner for
// editing, history and completion; any other reader is read line by line.
func Start(in io.Reader, out io.Writer, res *qdp.Result) {
	s := NewSession(res)
	fmt.Fprintf(out, "%d table(s). Type 'help' for commands.\n", len(res.Tables))

	if in != os.Stdin {
		scanner := bufio.NewScanner(in)
		for !s.Done() && scanner.Scan() {
			io.WriteString(out, s.Exec(scanner.Text()))
		}
		return
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := filepath.Join(os.TempDir(), ".qdp_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for !s.Done() {
		input, err := line.Prompt(PROMPT)
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Fprintln(out, "^C")
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		io.WriteString(out, s.Exec(input))
	}
}

// filterCompletions completes the command word.
func filterCompletions(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}
	word := strings.ToLower(line)
	if word == "" {
		return nil
	}
	var matches []string
	for _, c := range commandWords {
		if strings.HasPrefix(c, word) {
			matches = append(matches, c)
		}
	}
	return matches
}
