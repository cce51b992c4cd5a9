// Package linecmp defines the ordering of "Number. String" lines.
//
// Lines are ordered by their text suffix first (plain byte comparison, no
// locale rules) and by the numeric prefix second. Numbers are compared as
// digit strings, so prefixes of any length are supported without parsing
// into a fixed-width integer.
package linecmp

import (
	"errors"
	"fmt"
)

// Separator is the byte sequence between the numeric prefix and the text.
const Separator = ". "

// ErrMalformedLine is matched by every *FormatError via errors.Is.
var ErrMalformedLine = errors.New("malformed line")

// FormatError reports a line that does not have the "Number. String" shape.
type FormatError struct {
	// LineNo is the 1-based line number in the source file, 0 if unknown.
	LineNo int64
	// Line is the offending line, truncated for display.
	Line string
	// Reason describes what is missing.
	Reason string
}

func (e *FormatError) Error() string {
	if e.LineNo > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.LineNo, e.Reason, e.Line)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Line)
}

// Is makes errors.Is(err, ErrMalformedLine) true for any FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrMalformedLine
}

const maxQuotedLine = 120

func newFormatError(line, reason string) *FormatError {
	if len(line) > maxQuotedLine {
		line = line[:maxQuotedLine] + "..."
	}
	return &FormatError{Line: line, Reason: reason}
}

// Check validates a single line: a non-empty run of decimal digits followed
// by ". " and an arbitrary (possibly empty) suffix.
func Check(line string) error {
	dot := separatorIndex(line)
	if dot == len(line) {
		return newFormatError(line, "missing '.' separator")
	}
	if dot == 0 {
		return newFormatError(line, "empty numeric prefix")
	}
	for i := 0; i < dot; i++ {
		if c := line[i]; c < '0' || c > '9' {
			return newFormatError(line, "non-digit in numeric prefix")
		}
	}
	if dot+1 >= len(line) || line[dot+1] != ' ' {
		return newFormatError(line, "missing space after '.'")
	}
	return nil
}

// CheckAt is Check with the line number recorded on the returned error.
func CheckAt(line string, lineNo int64) error {
	if err := Check(line); err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.LineNo = lineNo
		}
		return err
	}
	return nil
}

// separatorIndex returns the index of the first '.', or len(line) if the
// line has none.
func separatorIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '.' {
			return i
		}
	}
	return len(line)
}

// suffixStart returns where the text suffix begins for a line whose first
// '.' sits at dot. Lines without the full separator get an empty suffix.
func suffixStart(line string, dot int) int {
	if s := dot + len(Separator); s <= len(line) {
		return s
	}
	return len(line)
}

// Compare orders two lines. It returns a negative number when a sorts
// before b, a positive number when after, and zero when they are equal.
//
// Compare never panics. A line without '.' is treated as an all-prefix line
// with an empty suffix; use Check or CompareChecked to reject such input.
func Compare(a, b string) int {
	pa := separatorIndex(a)
	pb := separatorIndex(b)

	ia := suffixStart(a, pa)
	ib := suffixStart(b, pb)
	for ia < len(a) && ib < len(b) {
		if d := int(a[ia]) - int(b[ib]); d != 0 {
			return d
		}
		ia++
		ib++
	}
	switch {
	case ia < len(a):
		return 1
	case ib < len(b):
		return -1
	}

	// Identical suffixes: fewer digits is the smaller number.
	if pa != pb {
		if pa < pb {
			return -1
		}
		return 1
	}
	for i := 0; i < pa; i++ {
		if d := int(a[i]) - int(b[i]); d != 0 {
			return d
		}
	}
	return 0
}

// CompareChecked validates both lines before comparing them.
func CompareChecked(a, b string) (int, error) {
	if err := Check(a); err != nil {
		return 0, err
	}
	if err := Check(b); err != nil {
		return 0, err
	}
	return Compare(a, b), nil
}

// Less reports whether a sorts strictly before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}
