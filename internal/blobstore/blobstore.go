// Package blobstore stores uploaded video bytes and serves them back under
// the record's relative path.
package blobstore

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// PathPrefix is the relative directory every stored video lives under.
const PathPrefix = "videos/"

// Store persists video bytes.
type Store interface {
	// Put stores r under name and returns the record path ("videos/<name>").
	// size may be -1 when unknown.
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Serve writes the stored bytes of name to w, or redirects to them.
	Serve(w http.ResponseWriter, r *http.Request, name string)
	// Check reports whether the backend is reachable and writable.
	Check(ctx context.Context) error
}

// PathFor returns the record path of a stored filename.
func PathFor(name string) string { return PathPrefix + name }

// ValidName rejects names that could escape the videos directory.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}
