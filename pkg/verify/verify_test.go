package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/spf13/afero"
)

func check(t *testing.T, content string) (Report, error) {
	t.Helper()
	return Reader(context.Background(), strings.NewReader(content))
}

func TestSortedFile(t *testing.T) {
	rep, err := check(t, "2. apple\n1. banana\n10. banana\n")
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Sorted || rep.Violation != nil {
		t.Errorf("expected sorted, got %+v", rep)
	}
	if rep.Fingerprint.Lines != 3 || rep.Bytes != 30 {
		t.Errorf("lines=%d bytes=%d", rep.Fingerprint.Lines, rep.Bytes)
	}
}

func TestUnsortedFile(t *testing.T) {
	rep, err := check(t, "1. a\n10. b\n2. b\n3. c\n1. a\n")
	if err != nil {
		t.Fatal(err)
	}
	if rep.Sorted {
		t.Fatal("expected unsorted")
	}
	v := rep.Violation
	if v == nil || v.LineNo != 3 || v.Prev != "10. b" || v.Line != "2. b" {
		t.Errorf("violation = %+v", v)
	}
	if rep.Fingerprint.Lines != 5 {
		t.Errorf("scan stopped early: %d lines", rep.Fingerprint.Lines)
	}
	if !strings.Contains(v.String(), "line 3") {
		t.Errorf("String() = %s", v)
	}
}

func TestMalformedLine(t *testing.T) {
	_, err := check(t, "1. a\nbroken\n")
	var fe *linecmp.FormatError
	if !errors.As(err, &fe) || fe.LineNo != 2 {
		t.Errorf("expected FormatError on line 2, got %v", err)
	}
}

func TestEmptyAndUnterminated(t *testing.T) {
	rep, err := check(t, "")
	if err != nil || !rep.Sorted || rep.Fingerprint.Lines != 0 {
		t.Errorf("empty: %+v %v", rep, err)
	}
	rep, err = check(t, "1. a\r\n2. b")
	if err != nil || rep.Fingerprint.Lines != 2 {
		t.Errorf("unterminated: %+v %v", rep, err)
	}
}

func TestSameMultiset(t *testing.T) {
	a, _ := check(t, "3. x\n1. y\n3. x\n")
	b, _ := check(t, "3. x\n3. x\n1. y\n")
	c, _ := check(t, "3. x\n1. y\n1. y\n")
	d, _ := check(t, "3. x\n1. y\n")

	if !SameMultiset(a, b) {
		t.Error("permutations should match")
	}
	if SameMultiset(a, c) {
		t.Error("different duplicates should not match")
	}
	if SameMultiset(a, d) {
		t.Error("dropped line should not match")
	}
}

func TestFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/out.txt", []byte("1. a\n2. a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rep, err := File(context.Background(), fsys, "/out.txt")
	if err != nil || !rep.Sorted || rep.Path != "/out.txt" {
		t.Errorf("File: %+v %v", rep, err)
	}
	if _, err := File(context.Background(), fsys, "/missing.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}
