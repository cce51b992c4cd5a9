// Package verify checks a sorted file after the fact: every line is well
// formed, consecutive lines never decrease, and the file holds the same
// multiset of lines as the input it was produced from.
package verify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

const (
	bufferSize          = 4 * 1024 * 1024
	cancelCheckInterval = 1 << 16
)

// Fingerprint summarizes a multiset of lines. Hashes are summed, so line
// order does not matter and equal multisets give equal fingerprints.
type Fingerprint struct {
	Lines int64
	Sum   uint64
	XOR   uint64
}

func (f *Fingerprint) add(line string) {
	h := xxh3.HashString(line)
	f.Lines++
	f.Sum += h
	f.XOR ^= h
}

// Violation is the first place where a line sorts before its predecessor.
type Violation struct {
	LineNo int64
	Prev   string
	Line   string
}

func (v *Violation) String() string {
	return fmt.Sprintf("line %d: %q sorts before previous line %q", v.LineNo, v.Line, v.Prev)
}

// Report is the result of checking one file.
type Report struct {
	Path        string
	Bytes       int64
	Sorted      bool
	Violation   *Violation
	Fingerprint Fingerprint
}

// File reads path in full. A malformed line stops the scan with a
// *linecmp.FormatError; an ordering violation is recorded in the report and
// the scan continues so the fingerprint still covers every line.
func File(ctx context.Context, fsys afero.Fs, path string) (Report, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rep, err := Reader(ctx, f)
	rep.Path = path
	return rep, err
}

// Reader is File over an arbitrary stream.
func Reader(ctx context.Context, r io.Reader) (Report, error) {
	rep := Report{Sorted: true}
	br := bufio.NewReaderSize(r, bufferSize)

	var prev string
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return rep, fmt.Errorf("read: %w", err)
		}
		if raw == "" {
			return rep, nil
		}
		rep.Bytes += int64(len(raw))
		line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")

		lineNo := rep.Fingerprint.Lines + 1
		if lineNo%cancelCheckInterval == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return rep, cerr
			}
		}
		if cerr := linecmp.CheckAt(line, lineNo); cerr != nil {
			return rep, cerr
		}
		if rep.Sorted && lineNo > 1 && linecmp.Compare(prev, line) > 0 {
			rep.Sorted = false
			rep.Violation = &Violation{LineNo: lineNo, Prev: prev, Line: line}
		}
		rep.Fingerprint.add(line)
		prev = line
	}
}

// SameMultiset reports whether two files hold the same lines, ignoring order.
func SameMultiset(a, b Report) bool {
	return a.Fingerprint == b.Fingerprint
}
