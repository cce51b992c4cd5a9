// Package fileutil commits output files with tmp+rename semantics and
// removes temporary files, all through an afero.Fs so callers can run
// against the OS or an in-memory filesystem.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/eunmann/linesort/pkg/logging"
	"github.com/spf13/afero"
)

// TmpSuffix is appended to an output path while it is being written.
const TmpSuffix = ".tmp"

// Exists returns true if the file exists.
func Exists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// IsNonEmpty returns true if the file exists and has non-zero size.
func IsNonEmpty(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() > 0
}

// TmpPath returns the in-progress path for outPath. It lives in the same
// directory so the final rename never crosses filesystems.
func TmpPath(outPath string) string {
	return outPath + TmpSuffix
}

// WriteTmpThenMove lets writeFunc produce the complete file at TmpPath(outPath),
// syncs it, then renames it onto outPath. On any failure the tmp file is
// removed and outPath is left untouched.
func WriteTmpThenMove(fsys afero.Fs, outPath string, writeFunc func(tmpPath string) error) error {
	if err := fsys.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := TmpPath(outPath)
	fail := func(err error) error {
		_ = fsys.Remove(tmpPath)
		return err
	}

	if err := writeFunc(tmpPath); err != nil {
		return fail(err)
	}
	if err := syncFile(fsys, tmpPath); err != nil {
		return fail(fmt.Errorf("sync temp file: %w", err))
	}
	if err := fsys.Rename(tmpPath, outPath); err != nil {
		return fail(fmt.Errorf("rename temp to final: %w", err))
	}
	return nil
}

func syncFile(fsys afero.Fs, path string) error {
	f, err := fsys.OpenFile(path, 0, 0)
	if err != nil {
		return err
	}
	err = f.Sync()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// RemoveFiles deletes every path, ignoring ones that are already gone.
// It keeps going after a failure and returns the first error.
func RemoveFiles(fsys afero.Fs, paths []string) error {
	var firstErr error
	removed := 0
	for _, p := range paths {
		err := fsys.Remove(p)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, fs.ErrNotExist):
		case firstErr == nil:
			firstErr = fmt.Errorf("remove %s: %w", p, err)
		}
	}

	if removed > 0 {
		logging.L().Debug().Int("files_removed", removed).Msg("removed temporary files")
	}
	return firstErr
}
