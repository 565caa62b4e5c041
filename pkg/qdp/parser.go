package qdp

import (
	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// Block is a run of data rows between sentinels, commands or file edges.
type Block struct {
	Comments  []string  // comments seen since the previous block closed, up to this one closing
	Rows      []Row
	Spec      ErrorSpec // error declarations in force when the block opened
	StartLine int
}

// Width is the field count of the widest row.
func (b *Block) Width() int {
	w := 0
	for _, r := range b.Rows {
		w = max(w, len(r.Values))
	}
	return w
}

// parseState is the cross-line state of one parse. It is owned by a single
// call and discarded afterwards.
type parseState struct {
	delim Delimiter
	spec  ErrorSpec
	fold  *folder

	pending    []string // comments not yet attached to anything
	initial    []string
	initialSet bool
	seenData   bool

	current *Block
	blocks  []*Block
	diags   []Diagnostic
}

func newParseState(delim Delimiter) *parseState {
	return &parseState{delim: delim, fold: newFolder()}
}

// parseLines folds the state over every line and returns the closed blocks.
func parseLines(lines []string, delim Delimiter) (*parseState, error) {
	p := newParseState(delim)
	for i, text := range lines {
		rl := classify(text, p.delim, p.fold)
		rl.Line = i + 1
		if err := p.step(rl); err != nil {
			return nil, err
		}
	}
	p.closeBlock(true)
	// Comments after the last block closed belong to it.
	if n := len(p.blocks); n > 0 && len(p.pending) > 0 {
		last := p.blocks[n-1]
		last.Comments = append(last.Comments, p.pending...)
		p.pending = nil
	}
	return p, nil
}

func (p *parseState) step(rl RawLine) error {
	switch rl.Kind {
	case LineBlank:
		// dropped, pending comments survive

	case LineComment:
		p.pending = append(p.pending, rl.Payload)

	case LineCommand:
		p.captureInitial()
		if p.seenData {
			p.warn(qdperrors.CodeMultipleCommandBlocks, rl.Line)
		}
		// The open block keeps the layout it started with. Comments just
		// before a command describe what follows it.
		p.closeBlock(false)
		p.spec.Apply(rl.Cmd)

	case LineSentinel:
		p.closeBlock(true)

	case LineData:
		p.captureInitial()
		if p.delim == DelimAuto {
			p.delim = detectDelimiter(rl.Payload)
		}
		row, err := parseRow(rl.Payload, p.delim, rl.Line, p.fold)
		if err != nil {
			return err
		}
		if p.current == nil {
			p.current = &Block{
				Comments:  p.pending,
				Spec:      p.spec.Clone(),
				StartLine: rl.Line,
			}
			p.pending = nil
		}
		p.current.Rows = append(p.current.Rows, row)
		p.seenData = true
	}
	return nil
}

// captureInitial moves the pending comments to the file level the first
// time a command or data line is seen.
func (p *parseState) captureInitial() {
	if p.initialSet {
		return
	}
	p.initial = p.pending
	p.pending = nil
	p.initialSet = true
}

// closeBlock ends the open block. With attach set, comments that arrived
// since its first row are attached to it; otherwise they stay pending for
// the next block.
func (p *parseState) closeBlock(attach bool) {
	if p.current != nil && len(p.current.Rows) > 0 {
		if attach {
			p.current.Comments = append(p.current.Comments, p.pending...)
			p.pending = nil
		}
		p.blocks = append(p.blocks, p.current)
	}
	p.current = nil
}

func (p *parseState) warn(code string, line int) {
	p.diags = append(p.diags, newDiagnostic(code, line))
}
