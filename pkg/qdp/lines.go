package qdp

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	qdperrors "github.com/sambeau/qdp/pkg/qdp/errors"
)

// maxLineSize bounds a single line read from a file or reader.
const maxLineSize = 16 * 1024 * 1024

// Source yields the lines of a QDP document, with line terminators removed.
type Source interface {
	Lines() ([]string, error)
	// Name identifies the source in error messages; empty for in-memory text.
	Name() string
}

// FromFile reads lines from a file. Names ending in .gz or .zst are
// decompressed on the fly.
func FromFile(path string) Source {
	return fileSource{path: path}
}

// FromString splits an in-memory text blob into lines.
func FromString(text string) Source {
	return textSource{text: text}
}

// FromLines uses an already split sequence of lines.
func FromLines(lines []string) Source {
	return lineSource{lines: lines}
}

// FromReader reads lines from r until EOF.
func FromReader(r io.Reader) Source {
	return readerSource{r: r}
}

// FromAuto treats s as text when it contains a newline and as a file path
// otherwise.
func FromAuto(s string) Source {
	if strings.ContainsAny(s, "\n") {
		return FromString(s)
	}
	return FromFile(s)
}

type fileSource struct {
	path string
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Lines() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, qdperrors.NewIO("open", s.path, err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(s.path, f)
	if err != nil {
		return nil, qdperrors.NewIO("decompress", s.path, err)
	}
	defer closeFn()

	lines, err := scanLines(r)
	if err != nil {
		return nil, qdperrors.NewIO("read", s.path, err)
	}
	return lines, nil
}

// decompressor picks a reader for the file extension.
func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { gz.Close() }, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

type textSource struct {
	text string
}

func (s textSource) Name() string { return "" }

func (s textSource) Lines() ([]string, error) {
	return splitLines(s.text), nil
}

type lineSource struct {
	lines []string
}

func (s lineSource) Name() string { return "" }

func (s lineSource) Lines() ([]string, error) {
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = strings.TrimSuffix(l, "\n")
	}
	return out, nil
}

type readerSource struct {
	r io.Reader
}

func (s readerSource) Name() string { return "" }

func (s readerSource) Lines() ([]string, error) {
	lines, err := scanLines(s.r)
	if err != nil {
		return nil, qdperrors.NewIO("read", "<reader>", err)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// splitLines splits on \n, dropping a \r before it and the empty element a
// final newline would leave behind.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}
