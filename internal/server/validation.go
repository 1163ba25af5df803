package server

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// allowedVideoTypes are the content types the receiver accepts, detected
// from the file's bytes rather than its name or the client's header.
var allowedVideoTypes = []string{
	"video/mp4",
	"video/mpeg",
	"video/quicktime",
	"video/x-msvideo",
	"video/webm",
}

// detectVideoType sniffs r and returns the matching allowed type, or the
// detected type and false. Only the detected type itself is matched: its
// parents are containers shared with images and audio (AVIF, HEIC, M4A).
func detectVideoType(r io.Reader) (string, bool, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", false, err
	}
	for _, allowed := range allowedVideoTypes {
		if mt.Is(allowed) {
			return allowed, true, nil
		}
	}
	return mt.String(), false, nil
}

// storedExtension returns ".ext" for the original filename, or "" when it
// has no usable extension.
func storedExtension(original string) string {
	ext := strings.TrimPrefix(filepath.Ext(original), ".")
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, c := range ext {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum {
			return ""
		}
	}
	return "." + ext
}
