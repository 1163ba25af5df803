// Package view turns registry and feed state into a page model and renders
// it as text, JSON, HTML or an M3U8 playlist. Building the page is a pure
// function; renderers only read it.
package view

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"videohub/internal/client"
	"videohub/internal/domain"
)

// NoticeTTL is how long a status message stays visible.
const NoticeTTL = 3 * time.Second

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient status message.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
	At   time.Time  `json:"at"`
}

func Success(text string, at time.Time) Notice {
	return Notice{Kind: NoticeSuccess, Text: text, At: at}
}

func Info(text string, at time.Time) Notice {
	return Notice{Kind: NoticeInfo, Text: text, At: at}
}

// Failure describes err for the user.
func Failure(err error, at time.Time) Notice {
	return Notice{Kind: NoticeError, Text: describe(err), At: at}
}

// Visible reports whether the notice should still be shown at now.
func (n Notice) Visible(now time.Time) bool {
	return n.Text != "" && now.Sub(n.At) < NoticeTTL
}

func describe(err error) string {
	var te *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrNoEndpoint):
		return "No server configured. Add one with: videohub servers add <address>"
	case errors.Is(err, domain.ErrDuplicate):
		return "This server is already in the list"
	case errors.Is(err, domain.ErrValidation):
		return "Enter a valid address"
	case domain.IsStorage(err):
		return fmt.Sprintf("Could not access local settings: %v", err)
	case errors.As(err, &te):
		return describeTransport(te)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func describeTransport(te *domain.TransportError) string {
	action := "Request failed"
	switch te.Method {
	case http.MethodPost:
		action = "Upload failed"
	case http.MethodGet:
		action = "Could not load videos"
	}
	switch {
	case te.Message != "":
		return fmt.Sprintf("%s: %s", action, te.Message)
	case te.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", action, te.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", action, te)
	}
}

// Registry is the part of the endpoint registry a page needs.
type Registry interface {
	All() []string
	Active() (string, bool)
}

type ServerView struct {
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

type VideoView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Server     string `json:"server"`
	URL        string `json:"url"`
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	SizeHuman  string `json:"size_human"`
	UploadedAt string `json:"uploaded_at"`
	Date       string `json:"date"` // dd/mm/yyyy
}

type SourceView struct {
	Endpoint string `json:"endpoint"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Page is everything a renderer shows.
type Page struct {
	Servers     []ServerView `json:"servers"`
	Videos      []VideoView  `json:"videos"`
	Sources     []SourceView `json:"sources"`
	Notice      *Notice      `json:"notice,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Build assembles the page. notice is dropped once it has expired.
func Build(reg Registry, feed client.FeedResult, notice Notice, now time.Time) Page {
	p := Page{
		Servers:     []ServerView{},
		Videos:      make([]VideoView, 0, len(feed.Items)),
		Sources:     make([]SourceView, 0, len(feed.Sources)),
		GeneratedAt: now,
	}

	active, _ := reg.Active()
	for _, addr := range reg.All() {
		p.Servers = append(p.Servers, ServerView{Address: addr, Active: addr == active})
	}

	for _, item := range feed.Items {
		p.Videos = append(p.Videos, VideoView{
			ID:         item.ID,
			Title:      item.Title,
			Server:     item.Server,
			URL:        item.URL(),
			MimeType:   sourceType(item.MimeType),
			Size:       item.Size,
			SizeHuman:  humanSize(item.Size),
			UploadedAt: item.UploadedAt.String(),
			Date:       displayDate(item.UploadedAt),
		})
	}

	for _, s := range feed.Sources {
		sv := SourceView{Endpoint: s.Endpoint, Count: s.Count, Skipped: s.Skipped}
		if s.Err != nil {
			sv.Error = s.Err.Error()
		}
		p.Sources = append(p.Sources, sv)
	}

	if notice.Visible(now) {
		n := notice
		p.Notice = &n
	}
	return p
}

func sourceType(mimeType string) string {
	if mimeType == "" {
		return "video/mp4"
	}
	return mimeType
}

func displayDate(ts domain.Timestamp) string {
	if ts.Time.IsZero() {
		return ts.String()
	}
	return ts.Time.Format("02/01/2006")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
