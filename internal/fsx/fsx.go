// Package fsx holds the filesystem helpers used by the local stores: atomic
// replace of small files and atomic placement of streamed uploads.
package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Swapped in tests to simulate EXDEV and permission failures.
var renameFunc = os.Rename

// CrossDeviceError is a rename that failed with EXDEV. Callers must keep the
// temp file on the same filesystem as the target; no copy fallback is done.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("rename %q -> %q crosses filesystems: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and tags EXDEV failures.
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// WriteFileAtomic replaces dir/name with data. Readers see either the old or
// the new content, never a partial write.
func WriteFileAtomic(dir, name string, data []byte) error {
	_, err := place(dir, name, 0o644, func(w io.Writer) (int64, error) {
		n, err := w.Write(data)
		return int64(n), err
	})
	return err
}

// WriteStreamAtomic copies r into dir/name through a temp file in dir and
// returns the number of bytes written.
func WriteStreamAtomic(dir, name string, r io.Reader) (int64, error) {
	return place(dir, name, 0o644, func(w io.Writer) (int64, error) {
		return io.Copy(w, r)
	})
}

func place(dir, name string, perm os.FileMode, fill func(io.Writer) (int64, error)) (int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	dst := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := fill(tmp)
	if err != nil {
		return n, err
	}
	if err := tmp.Chmod(perm); err != nil {
		return n, err
	}
	if err := tmp.Sync(); err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := Rename(tmpName, dst); err != nil {
		return n, err
	}

	_ = syncDirBestEffort(dir)
	return n, nil
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
