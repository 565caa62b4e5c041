package qdp

import (
	"fmt"
	"strings"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// SlotKind says what a physical column holds.
type SlotKind int

const (
	SlotBase SlotKind = iota
	SlotErr
	SlotPosErr
	SlotNegErr
)

// ColumnSlot maps one physical field position to a logical column.
type ColumnSlot struct {
	Name     string
	Kind     SlotKind
	Base     int // 1-based index of the owning base column
	Position int // 0-based field position in a row
}

// Layout maps width physical fields to base and error columns under spec.
// Missing names are filled with col1, col2, ...
func Layout(spec ErrorSpec, width int, names []string) ([]ColumnSlot, error) {
	nBase := -1
	for b := 0; b <= width; b++ {
		if spec.Width(b) == width {
			nBase = b
			break
		}
	}
	if nBase < 0 {
		return nil, mismatch("error columns declared for %s do not fit rows of %d fields", describeSpec(spec), width)
	}
	if m := spec.MaxIndex(); m > nBase {
		return nil, mismatch("error columns declared for column %d but rows of %d fields hold only %d base columns", m, width, nBase)
	}
	if len(names) > nBase {
		return nil, mismatch("%d column names given but rows hold %d base columns", len(names), nBase)
	}

	slots := make([]ColumnSlot, 0, width)
	pos := 0
	for b := 1; b <= nBase; b++ {
		name := fmt.Sprintf("col%d", b)
		if b <= len(names) {
			name = names[b-1]
		}
		slots = append(slots, ColumnSlot{Name: name, Kind: SlotBase, Base: b, Position: pos})
		pos++

		switch spec.Kind(b) {
		case ErrSymmetric:
			slots = append(slots, ColumnSlot{Name: name + SuffixErr, Kind: SlotErr, Base: b, Position: pos})
			pos++
		case ErrAsymmetric:
			slots = append(slots,
				ColumnSlot{Name: name + SuffixPerr, Kind: SlotPosErr, Base: b, Position: pos},
				ColumnSlot{Name: name + SuffixNerr, Kind: SlotNegErr, Base: b, Position: pos + 1},
			)
			pos += 2
		}
	}
	return slots, nil
}

// ErrorSpecFromColumns recovers the error declarations from column names:
// x_err after x is SERR, x_perr then x_nerr after x is TERR.
func ErrorSpecFromColumns(names []string) (ErrorSpec, error) {
	var spec ErrorSpec
	base := 0
	baseName := ""

	for i := 0; i < len(names); i++ {
		name := names[i]
		switch {
		case base > 0 && name == baseName+SuffixErr:
			spec.Set(ErrSymmetric, base)
		case base > 0 && name == baseName+SuffixPerr:
			if i+1 >= len(names) || names[i+1] != baseName+SuffixNerr {
				return ErrorSpec{}, mismatch("column %s is not followed by %s", name, baseName+SuffixNerr)
			}
			spec.Set(ErrAsymmetric, base)
			i++
		default:
			base++
			baseName = name
		}
	}
	return spec, nil
}

func describeSpec(spec ErrorSpec) string {
	var parts []string
	for _, cmd := range spec.Commands() {
		parts = append(parts, cmd.String())
	}
	if len(parts) == 0 {
		return "no columns"
	}
	return strings.Join(parts, ", ")
}

func mismatch(format string, args ...any) *qdperrors.QDPError {
	return qdperrors.New(qdperrors.CodeColumnCountMismatch, map[string]any{
		"Reason": fmt.Sprintf(format, args...),
	})
}
