package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"videohub/internal/blobstore"
	"videohub/internal/domain"
	"videohub/internal/logging"
	"videohub/internal/metastore"
)

var fixedNow = time.Date(2024, 5, 17, 14, 3, 9, 0, time.Local)

type testEnv struct {
	dir    string
	store  *metastore.JSONFileStore
	blobs  *blobstore.LocalStore
	server *Server
}

func newTestEnv(t *testing.T, tweak func(*Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := metastore.NewJSONFileStore(dir)
	if err != nil {
		t.Fatalf("NewJSONFileStore: %v", err)
	}
	blobs, err := blobstore.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	cfg := Config{
		Store:  store,
		Blobs:  blobs,
		Logger: logging.Discard(),
		Now:    func() time.Time { return fixedNow },
		Build:  BuildInfo{Version: "test", Commit: "abc123"},
	}
	if tweak != nil {
		tweak(&cfg)
	}
	return &testEnv{dir: dir, store: store, blobs: blobs, server: New(cfg)}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

// mp4Bytes returns size bytes starting with an ISO base media ftyp box.
func mp4Bytes(size int) []byte {
	return ftypBytes("mp42", size)
}

// ftypBytes returns size bytes starting with an ftyp box for the four
// character major brand.
func ftypBytes(brand string, size int) []byte {
	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}
	header = append(header, brand...)
	header = append(header, 0x00, 0x00, 0x00, 0x00)
	header = append(header, brand...)
	header = append(header, 'i', 's', 'o', 'm')
	return padded(header, size)
}

// aviBytes returns size bytes starting with a RIFF AVI header.
func aviBytes(size int) []byte {
	header := []byte{'R', 'I', 'F', 'F', 0x00, 0x10, 0x00, 0x00, 'A', 'V', 'I', ' ', 'L', 'I', 'S', 'T'}
	return padded(header, size)
}

// mpegBytes returns size bytes starting with an MPEG program stream pack header.
func mpegBytes(size int) []byte {
	return padded([]byte{0x00, 0x00, 0x01, 0xBA, 0x44, 0x00, 0x04, 0x00, 0x04, 0x01}, size)
}

// webmBytes returns size bytes starting with an EBML header whose DocType is webm.
func webmBytes(size int) []byte {
	header := []byte{0x1A, 0x45, 0xDF, 0xA3, 0x93, 0x42, 0x82, 0x84, 'w', 'e', 'b', 'm', 0x42, 0x87, 0x81, 0x02}
	return padded(header, size)
}

func padded(header []byte, size int) []byte {
	if size < len(header) {
		size = len(header)
	}
	b := make([]byte, size)
	copy(b, header)
	return b
}

type part struct {
	field    string
	filename string // empty for plain fields
	content  []byte
}

func uploadRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range parts {
		if p.filename == "" {
			if err := mw.WriteField(p.field, string(p.content)); err != nil {
				t.Fatal(err)
			}
			continue
		}
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(p.content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload.php", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func videoPart(name string, content []byte) part {
	return part{field: "video", filename: name, content: content}
}

func titlePart(title string) part {
	return part{field: "title", content: []byte(title)}
}

// failingStore fails every write and ping with err.
type failingStore struct {
	metastore.Store
	err error
}

func (f failingStore) Append(context.Context, domain.Record) error { return f.err }
func (f failingStore) Ping(context.Context) error                  { return f.err }
