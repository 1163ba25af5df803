package metastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"videohub/internal/domain"
	"videohub/internal/fsx"
)

// MetadataFile is the name of the JSON store inside the data directory.
const MetadataFile = "videos.json"

// JSONFileStore keeps all records in one JSON array file. Appends are a
// read-modify-write serialised by mu and committed with an atomic rename, so
// concurrent uploads in one process never lose each other's records.
type JSONFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewJSONFileStore(dataDir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, &domain.StorageError{Op: "create data dir", Err: err}
	}
	return &JSONFileStore{dir: dataDir}, nil
}

// Path returns the location of the metadata file.
func (s *JSONFileStore) Path() string { return filepath.Join(s.dir, MetadataFile) }

func (s *JSONFileStore) Append(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.load()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	recs = append(recs, rec)

	data, err := encodePretty(recs)
	if err != nil {
		return &domain.StorageError{Op: "encode metadata", Err: err}
	}
	if err := fsx.WriteFileAtomic(s.dir, MetadataFile, data); err != nil {
		return &domain.StorageError{Op: "write metadata", Err: err}
	}
	return nil
}

func (s *JSONFileStore) List(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	recs, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	SortNewestFirst(recs)
	return recs, nil
}

func (s *JSONFileStore) Ping(ctx context.Context) error {
	fi, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", s.dir)
	}
	return nil
}

func (s *JSONFileStore) Close() error { return nil }

// load reads the file; a missing or empty file is an empty store. A file that
// does not decode is reported rather than silently overwritten on the next
// append.
func (s *JSONFileStore) load() ([]domain.Record, error) {
	b, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "read metadata", Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return []domain.Record{}, nil
	}

	var recs []domain.Record
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, &domain.StorageError{Op: "decode metadata", Err: err}
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}

func encodePretty(recs []domain.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(recs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
