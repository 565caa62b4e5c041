package qdp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrKind is the kind of error values attached to a base column.
type ErrKind int

const (
	ErrNone       ErrKind = iota
	ErrSymmetric          // SERR: one <base>_err column
	ErrAsymmetric         // TERR: <base>_perr then <base>_nerr
)

// String returns the command keyword for the kind
func (k ErrKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrSymmetric:
		return CommandSerr
	case ErrAsymmetric:
		return CommandTerr
	default:
		return fmt.Sprintf("ErrKind(%d)", k)
	}
}

// width is the number of physical columns the kind adds after its base.
func (k ErrKind) width() int {
	switch k {
	case ErrSymmetric:
		return 1
	case ErrAsymmetric:
		return 2
	default:
		return 0
	}
}

// Command is a parsed READ TERR/SERR line.
type Command struct {
	Kind    ErrKind
	Indices []int // 1-based base column indices
}

// String renders the command in canonical form.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Indices)+2)
	parts = append(parts, CommandRead, c.Kind.String())
	for _, i := range c.Indices {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, " ")
}

// parseCommand recognizes READ TERR|SERR n [n ...], case-insensitively.
func parseCommand(s string, f *folder) (*Command, bool) {
	fields := strings.Fields(s)
	if len(fields) < 3 || f.fold(fields[0]) != "read" {
		return nil, false
	}

	cmd := &Command{}
	switch f.fold(fields[1]) {
	case "terr":
		cmd.Kind = ErrAsymmetric
	case "serr":
		cmd.Kind = ErrSymmetric
	default:
		return nil, false
	}

	for _, field := range fields[2:] {
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, false
		}
		cmd.Indices = append(cmd.Indices, n)
	}
	return cmd, true
}

// ErrorSpec maps 1-based base column indices to their error kind. The zero
// value is an empty spec.
type ErrorSpec struct {
	kinds map[int]ErrKind
}

// NewErrorSpec builds a spec from TERR and SERR index lists.
func NewErrorSpec(terr, serr []int) ErrorSpec {
	var s ErrorSpec
	s.Set(ErrAsymmetric, terr...)
	s.Set(ErrSymmetric, serr...)
	return s
}

// Set declares kind for each index. A later declaration for the same index
// replaces the earlier one.
func (s *ErrorSpec) Set(kind ErrKind, indices ...int) {
	if len(indices) == 0 {
		return
	}
	if s.kinds == nil {
		s.kinds = make(map[int]ErrKind)
	}
	for _, i := range indices {
		if kind == ErrNone {
			delete(s.kinds, i)
			continue
		}
		s.kinds[i] = kind
	}
}

// Apply folds a command into the spec.
func (s *ErrorSpec) Apply(cmd *Command) {
	s.Set(cmd.Kind, cmd.Indices...)
}

// Kind returns the error kind declared for base column i.
func (s ErrorSpec) Kind(i int) ErrKind {
	return s.kinds[i]
}

// IsEmpty reports whether no error columns are declared.
func (s ErrorSpec) IsEmpty() bool {
	return len(s.kinds) == 0
}

// Indices returns the declared base column indices in ascending order.
func (s ErrorSpec) Indices() []int {
	out := make([]int, 0, len(s.kinds))
	for i := range s.kinds {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Terr returns the asymmetric indices in ascending order.
func (s ErrorSpec) Terr() []int {
	return s.indicesOf(ErrAsymmetric)
}

// Serr returns the symmetric indices in ascending order.
func (s ErrorSpec) Serr() []int {
	return s.indicesOf(ErrSymmetric)
}

func (s ErrorSpec) indicesOf(kind ErrKind) []int {
	var out []int
	for _, i := range s.Indices() {
		if s.kinds[i] == kind {
			out = append(out, i)
		}
	}
	return out
}

// MaxIndex returns the highest declared index, or 0.
func (s ErrorSpec) MaxIndex() int {
	m := 0
	for i := range s.kinds {
		m = max(m, i)
	}
	return m
}

// Width returns the number of physical columns occupied by nBase base
// columns and the error columns declared for them.
func (s ErrorSpec) Width(nBase int) int {
	w := nBase
	for i, k := range s.kinds {
		if i <= nBase {
			w += k.width()
		}
	}
	return w
}

// Clone returns an independent copy.
func (s ErrorSpec) Clone() ErrorSpec {
	c := ErrorSpec{}
	if len(s.kinds) > 0 {
		c.kinds = make(map[int]ErrKind, len(s.kinds))
		for i, k := range s.kinds {
			c.kinds[i] = k
		}
	}
	return c
}

// Commands renders the spec as READ lines: one TERR line then one SERR
// line, each omitted when empty.
func (s ErrorSpec) Commands() []*Command {
	var cmds []*Command
	if terr := s.Terr(); len(terr) > 0 {
		cmds = append(cmds, &Command{Kind: ErrAsymmetric, Indices: terr})
	}
	if serr := s.Serr(); len(serr) > 0 {
		cmds = append(cmds, &Command{Kind: ErrSymmetric, Indices: serr})
	}
	return cmds
}

// Changes returns the declarations that turn s into next when applied on
// top of it. READ lines can replace a declaration but never withdraw one, so
// an index declared in s and missing from next is a ColumnCountMismatch.
func (s ErrorSpec) Changes(next ErrorSpec) (ErrorSpec, error) {
	for _, i := range s.Indices() {
		if next.Kind(i) == ErrNone {
			return ErrorSpec{}, mismatch("column %d loses its %s declaration, which READ lines cannot undo", i, s.Kind(i))
		}
	}
	var out ErrorSpec
	for _, i := range next.Indices() {
		if k := next.Kind(i); k != s.Kind(i) {
			out.Set(k, i)
		}
	}
	return out, nil
}
