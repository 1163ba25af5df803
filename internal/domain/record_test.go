package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRecord_JSONShape(t *testing.T) {
	rec := Record{
		ID:           "abc",
		Title:        "Holiday",
		Filename:     "video_abc.mp4",
		Path:         "videos/video_abc.mp4",
		Size:         1024,
		MimeType:     "video/mp4",
		UploadedAt:   NewTimestamp(time.Date(2024, 2, 1, 10, 30, 0, 0, time.Local)),
		OriginalName: "holiday.mp4",
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "title", "filename", "path", "size", "mime_type", "uploaded_at", "original_name"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if m["uploaded_at"] != "2024-02-01 10:30:00" {
		t.Errorf("uploaded_at = %v", m["uploaded_at"])
	}
}

func TestTimestamp_UnknownLayoutSurvivesRoundTrip(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"last tuesday"`), &ts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.Time.IsZero() {
		t.Errorf("expected zero time, got %v", ts.Time)
	}
	b, _ := json.Marshal(ts)
	if string(b) != `"last tuesday"` {
		t.Errorf("round trip = %s", b)
	}
}

func TestParseTimestamp_RFC3339(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", ts.Time)
	}
}

func TestTimestamp_Scan(t *testing.T) {
	var ts Timestamp
	if err := ts.Scan("2024-01-01 00:00:00"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if ts.String() != "2024-01-01 00:00:00" {
		t.Errorf("got %q", ts.String())
	}
	if err := ts.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestTransportError_Message(t *testing.T) {
	e := &TransportError{Method: "POST", URL: "http://a/upload.php", StatusCode: 400, Message: "title must not be empty"}
	if !strings.Contains(e.Error(), "HTTP 400") || !strings.Contains(e.Error(), "title must not be empty") {
		t.Errorf("unexpected message %q", e.Error())
	}

	cause := errors.New("connection refused")
	e = &TransportError{Method: "GET", URL: "http://b/videos.php", Err: cause}
	if !errors.Is(e, cause) {
		t.Error("expected TransportError to unwrap to its cause")
	}
}

func TestIsStorage(t *testing.T) {
	err := errors.Join(errors.New("ctx"), &StorageError{Op: "write metadata", Err: errors.New("disk full")})
	if !IsStorage(err) {
		t.Error("expected IsStorage to see through wrapping")
	}
	if IsStorage(errors.New("plain")) {
		t.Error("plain error is not a storage error")
	}
}
