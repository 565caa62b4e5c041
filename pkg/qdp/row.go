package qdp

import (
	"math"
	"regexp"
	"strconv"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// Row is one tokenized data line. Values may be shorter than the block
// width; the missing trailing fields read as missing values.
type Row struct {
	Values []Value
	Line   int
}

// decimalPattern is the only numeric syntax QDP accepts. ParseFloat alone
// would also take inf, hex floats and digit separators.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseRow splits a data payload on delim and coerces every field.
func parseRow(payload string, delim Delimiter, line int, fl *folder) (Row, error) {
	fields := splitFields(payload, delim)

	// Trailing empty fields ("1,2,") are omitted fields, interior ones are gaps.
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}

	row := Row{Values: make([]Value, len(fields)), Line: line}
	for i, f := range fields {
		if f == "" {
			return Row{}, qdperrors.NewWithPosition(qdperrors.CodeMalformedRow, line, i+1, map[string]any{
				"Reason": "empty field in the middle of a row",
			})
		}
		v, err := parseValue(f, fl)
		if err != nil {
			return Row{}, qdperrors.NewWithPosition(qdperrors.CodeMalformedValue, line, i+1, map[string]any{
				"Token": f,
			})
		}
		row.Values[i] = v
	}
	return row, nil
}

// parseValue coerces one field. NO and nan, with or without a sign, are
// missing. Anything else must be a finite decimal number.
func parseValue(tok string, fl *folder) (Value, error) {
	if isMissingToken(tok, fl) {
		return missingValue, nil
	}
	if !decimalPattern.MatchString(tok) {
		return Value{}, strconv.ErrSyntax
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return Value{}, err
	}
	if math.IsInf(f, 0) {
		return Value{}, strconv.ErrRange
	}
	return Value{Float: f}, nil
}

func isMissingToken(tok string, fl *folder) bool {
	switch fl.fold(tok) {
	case "no", "nan", "-nan", "+nan":
		return true
	}
	return false
}
