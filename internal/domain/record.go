package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format of uploaded_at.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is the metadata stored for one uploaded video. It is created once by
// the upload receiver and never mutated afterwards.
type Record struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Filename     string    `json:"filename" db:"filename"`
	Path         string    `json:"path" db:"path"`
	Size         int64     `json:"size" db:"size"`
	MimeType     string    `json:"mime_type" db:"mime_type"`
	UploadedAt   Timestamp `json:"uploaded_at" db:"uploaded_at"`
	OriginalName string    `json:"original_name" db:"original_name"`
}

// Timestamp is a second-precision instant encoded as "YYYY-MM-DD HH:MM:SS".
//
// Values received from other servers that do not parse are kept verbatim so
// they survive a round trip; they compare as the zero time.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp truncates t to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

// ParseTimestamp accepts the wire layout, RFC 3339 and a bare date. The wire
// layout carries no zone and is read in the local zone.
func ParseTimestamp(s string) (Timestamp, error) {
	if s == "" {
		return Timestamp{}, nil
	}
	if t, err := time.ParseInLocation(TimestampLayout, s, time.Local); err == nil {
		return Timestamp{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewTimestamp(t.In(time.Local)), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
		return Timestamp{Time: t}, nil
	}
	return Timestamp{raw: s}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return t.raw
	}
	return t.Time.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("uploaded_at: %w", err)
	}
	// Unknown layouts are tolerated, see ParseTimestamp.
	parsed, _ := ParseTimestamp(s)
	*t = parsed
	return nil
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Timestamp{}
	case time.Time:
		*t = NewTimestamp(v.In(time.Local))
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (t Timestamp) Value() (driver.Value, error) {
	if t.Time.IsZero() {
		return nil, nil
	}
	return t.Time, nil
}
