// Package qdp reads and writes QDP (Quick-Data-Plot) tables, the plain-text
// table format used by X-ray astronomy pipelines.
//
// A QDP file holds one or more tables stacked on top of each other. Lines are
// one of:
//   - comments, starting with "!"
//   - commands, "READ TERR n..." or "READ SERR n..." declaring which base
//     columns carry asymmetric (positive, negative) or symmetric errors
//   - sentinels, a row made only of NO fields, separating tables
//   - data rows, whitespace or comma separated numbers where NO or nan
//     marks a missing value
//
// Example QDP:
//
//	! Swift/XRT light curve
//	READ TERR 1
//	READ SERR 2
//	! hard band
//	53000.5  0.25  -0.5  1.0  0.1
//	54000.5  1.25  -1.5  NO   0.2
//	NO NO NO NO NO
//	! soft band
//	53000.5  0.25  -0.5  3.0  0.3
//
// reads as two tables with columns col1, col1_perr, col1_nerr, col2 and
// col2_err. Comments before the first command or data row are shared by all
// tables as initial comments; comments right before a table belong to it.
//
// Reading never logs. Recoverable oddities, such as command lines appearing
// after data, are returned as Diagnostics on the Result.
package qdp

// Grammar constants.
const (
	CommentPrefix = "!"
	CommandRead   = "READ"
	CommandTerr   = "TERR"
	CommandSerr   = "SERR"
	MissingToken  = "NO"
	NaNToken      = "nan"
)

// Column name suffixes for attached error columns.
const (
	SuffixErr  = "_err"
	SuffixPerr = "_perr"
	SuffixNerr = "_nerr"
)
