package extsort

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", CodecNone, CodecZstd, CodecLZ4} {
		c, err := CodecByName(name)
		if err != nil {
			t.Fatalf("CodecByName(%q): %v", name, err)
		}
		want := name
		if want == "" {
			want = CodecNone
		}
		if c.Name() != want {
			t.Errorf("CodecByName(%q).Name() = %q", name, c.Name())
		}
	}

	if _, err := CodecByName("brotli"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got %v", err)
	}
}

func TestCodecNames(t *testing.T) {
	got := strings.Join(CodecNames(), ",")
	if got != "lz4,none,zstd" {
		t.Errorf("CodecNames() = %s", got)
	}
}

func TestChunkFileRoundTrip(t *testing.T) {
	lines := []string{"10. banana", "2. apple", "1. ", "3. " + strings.Repeat("x", 10000)}

	for _, name := range CodecNames() {
		t.Run(name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			codec, _ := CodecByName(name)

			w, err := createLineWriter(fsys, "/c/0.chk", codec, 64)
			if err != nil {
				t.Fatal(err)
			}
			for _, l := range lines {
				if err := w.WriteLine(l); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}
			if w.lines != int64(len(lines)) {
				t.Errorf("writer counted %d lines", w.lines)
			}

			r, err := openLineReader(fsys, "/c/0.chk", codec, 64)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			for i, want := range lines {
				got, err := r.ReadLine()
				if err != nil {
					t.Fatalf("line %d: %v", i, err)
				}
				if got != want {
					t.Errorf("line %d = %q, want %q", i, got, want)
				}
			}
			if _, err := r.ReadLine(); !errors.Is(err, io.EOF) {
				t.Errorf("expected EOF, got %v", err)
			}
		})
	}
}

func TestCompressedChunksAreSmaller(t *testing.T) {
	for _, name := range []string{CodecZstd, CodecLZ4} {
		fsys := afero.NewMemMapFs()
		codec, _ := CodecByName(name)
		w, err := createLineWriter(fsys, "/c.chk", codec, 0)
		if err != nil {
			t.Fatal(err)
		}
		for range 2000 {
			if err := w.WriteLine("12345. the same text over and over"); err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		info, err := fsys.Stat("/c.chk")
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() >= w.bytes/2 {
			t.Errorf("%s: %d bytes on disk for %d bytes of lines", name, info.Size(), w.bytes)
		}
	}
}

func TestLineReaderTerminators(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/in.txt", []byte("1. a\r\n2. b\n3. c"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := openLineReader(fsys, "/in.txt", plainCodec{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var got []string
	for {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, line)
	}
	if strings.Join(got, "|") != "1. a|2. b|3. c" {
		t.Errorf("got %q", got)
	}
}
