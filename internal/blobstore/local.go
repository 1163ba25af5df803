package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"videohub/internal/domain"
	"videohub/internal/fsx"
)

// LocalStore keeps videos in <Dir>/videos on the local filesystem.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates the videos directory under dataDir if needed.
func NewLocalStore(dataDir string) (*LocalStore, error) {
	s := &LocalStore{Dir: dataDir}
	if err := os.MkdirAll(s.videosDir(), 0o755); err != nil {
		return nil, &domain.StorageError{Op: "create videos dir", Err: err}
	}
	return s, nil
}

func (s *LocalStore) videosDir() string {
	return filepath.Join(s.Dir, filepath.FromSlash(PathPrefix))
}

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if !ValidName(name) {
		return "", &domain.StorageError{Op: "put", Err: fmt.Errorf("invalid name %q", name)}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := fsx.WriteStreamAtomic(s.videosDir(), name, r)
	if err != nil {
		return "", &domain.StorageError{Op: "move uploaded file", Err: err}
	}
	if size >= 0 && n != size {
		_ = os.Remove(filepath.Join(s.videosDir(), name))
		return "", &domain.StorageError{Op: "move uploaded file", Err: fmt.Errorf("short write: %d of %d bytes", n, size)}
	}
	return PathFor(name), nil
}

func (s *LocalStore) Serve(w http.ResponseWriter, r *http.Request, name string) {
	if !ValidName(name) {
		http.NotFound(w, r)
		return
	}
	p := filepath.Join(s.videosDir(), name)
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, p)
}

func (s *LocalStore) Check(ctx context.Context) error {
	fi, err := os.Stat(s.videosDir())
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errors.New("videos path is not a directory")
	}
	return nil
}
