package extsort

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const defaultBufferSize = 4 * 1024 * 1024

// chunkPath returns <dir>/<index>.chk.
func chunkPath(dir string, index int) string {
	return filepath.Join(dir, strconv.Itoa(index)+ChunkExt)
}

// lineWriter writes newline-terminated lines through a codec.
type lineWriter struct {
	file   afero.File
	enc    io.WriteCloser
	writer *bufio.Writer
	path   string
	lines  int64
	bytes  int64
	closed bool
}

func createLineWriter(fsys afero.Fs, path string, codec Codec, bufferSize int) (*lineWriter, error) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	enc, err := codec.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &lineWriter{
		file:   f,
		enc:    enc,
		writer: bufio.NewWriterSize(enc, bufferSize),
		path:   path,
	}, nil
}

// WriteLine writes line followed by '\n'.
func (w *lineWriter) WriteLine(line string) error {
	if _, err := w.writer.WriteString(line); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	w.lines++
	w.bytes += int64(len(line)) + 1
	return nil
}

// Close flushes the buffer, finalizes the codec stream and closes the file.
func (w *lineWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Flush(); err != nil {
		w.enc.Close()
		w.file.Close()
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("finalize %s: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	return nil
}

// abort releases the writer after a failure, discarding errors.
func (w *lineWriter) abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.enc.Close()
	w.file.Close()
}

// lineReader yields lines without their terminator ("\n" or "\r\n").
// A final line without a terminator is still returned.
type lineReader struct {
	file   afero.File
	dec    io.ReadCloser
	reader *bufio.Reader
	path   string
	closed bool
}

func openLineReader(fsys afero.Fs, path string, codec Codec, bufferSize int) (*lineReader, error) {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	dec, err := codec.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &lineReader{
		file:   f,
		dec:    dec,
		reader: bufio.NewReaderSize(dec, bufferSize),
		path:   path,
	}, nil
}

// ReadLine returns the next line, or io.EOF when the stream is exhausted.
func (r *lineReader) ReadLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", r.path, err)
		}
		if line == "" {
			return "", io.EOF
		}
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Close closes the codec stream and the file.
func (r *lineReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	r.dec.Close()
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", r.path, err)
	}
	return nil
}
