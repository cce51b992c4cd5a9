package extsort

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/eunmann/linesort/pkg/linecmp"
	"github.com/spf13/afero"
)

func TestReadSubChunksPartitions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := newTestSorter(t, fsys, 0, 0, CodecNone)
	lines := generatedLines(t, 1000, 12)
	writeLines(t, fsys, "/c.chk", lines)
	info, _ := fsys.Stat("/c.chk")

	for _, n := range []int{1, 2, 4, 7} {
		parts, count, err := s.readSubChunks(context.Background(), chunkJob{
			src:       "/c.chk",
			srcCodec:  plainCodec{},
			bytes:     info.Size(),
			subChunks: n,
		})
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if count != 1000 {
			t.Errorf("n=%d: read %d lines", n, count)
		}
		if len(parts) > n {
			t.Errorf("n=%d: got %d sub-chunks", n, len(parts))
		}
		var all []string
		for _, p := range parts {
			if !slices.IsSortedFunc(p, linecmp.Compare) {
				t.Errorf("n=%d: sub-chunk not sorted", n)
			}
			all = append(all, p...)
		}
		assertSameMultiset(t, all, lines)
	}
}

func TestReadSubChunksOverflowGoesToLastSlice(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := newTestSorter(t, fsys, 0, 0, CodecNone)
	lines := generatedLines(t, 400, 13)
	writeLines(t, fsys, "/c.chk", lines)

	// Understating the chunk size fills every budget early; nothing may
	// spill past the last slice.
	parts, _, err := s.readSubChunks(context.Background(), chunkJob{
		src:       "/c.chk",
		srcCodec:  plainCodec{},
		bytes:     40,
		subChunks: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 4 {
		t.Fatalf("got %d sub-chunks, want 4", len(parts))
	}
	if n := len(parts[3]); n < 390 {
		t.Errorf("last sub-chunk holds %d lines, want the overflow", n)
	}
}

func TestSortChunkInPlace(t *testing.T) {
	for _, name := range CodecNames() {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			s := newTestSorter(t, fsys, 0, 0, name)
			lines := generatedLines(t, 2000, 14)
			writeChunk(t, fsys, s.codec, "/w/0.chk", lines)

			res, err := s.sortChunk(context.Background(), chunkJob{
				src: "/w/0.chk", dst: "/w/0.chk",
				srcCodec: s.codec, dstCodec: s.codec,
				bytes: 60_000, subChunks: 3,
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.lines != 2000 || res.subChunks != 3 {
				t.Errorf("result = %+v", res)
			}

			r, err := openLineReader(fsys, "/w/0.chk", s.codec, 0)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			var got []string
			for {
				line, err := r.ReadLine()
				if err != nil {
					break
				}
				got = append(got, line)
			}
			if !slices.IsSortedFunc(got, linecmp.Compare) {
				t.Error("chunk not sorted in place")
			}
			assertSameMultiset(t, got, lines)
		})
	}
}

func TestReadSubChunksValidates(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := newTestSorter(t, fsys, 0, 0, CodecNone)
	writeLines(t, fsys, "/in.txt", []string{"1. a", "2. b", ". c"})

	_, _, err := s.readSubChunks(context.Background(), chunkJob{
		src: "/in.txt", srcCodec: plainCodec{}, bytes: 15, subChunks: 2, validate: true,
	})
	var fe *linecmp.FormatError
	if !errors.As(err, &fe) || fe.LineNo != 3 || fe.Reason != "empty numeric prefix" {
		t.Errorf("expected empty-prefix FormatError on line 3, got %v", err)
	}
}

func TestReadSubChunksLaunchesFullSlicesEarly(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s := newTestSorter(t, fsys, 0, 0, CodecNone)
	lines := generatedLines(t, 1000, 14)
	writeLines(t, fsys, "/c.chk", lines)
	info, _ := fsys.Stat("/c.chk")

	var readAt []int64
	s.onSubChunk = func(part int, linesRead int64) {
		if part != len(readAt) {
			t.Errorf("sub-chunk %d launched out of order", part)
		}
		readAt = append(readAt, linesRead)
	}

	parts, _, err := s.readSubChunks(context.Background(), chunkJob{
		src:       "/c.chk",
		srcCodec:  plainCodec{},
		bytes:     info.Size(),
		subChunks: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(readAt) != len(parts) || len(parts) < 2 {
		t.Fatalf("%d launches for %d sub-chunks", len(readAt), len(parts))
	}
	for i, n := range readAt[:len(readAt)-1] {
		if n >= 1000 {
			t.Errorf("sub-chunk %d launched after the whole chunk was read", i)
		}
	}
	if last := readAt[len(readAt)-1]; last != 1000 {
		t.Errorf("last sub-chunk launched after %d lines, want 1000", last)
	}
}
