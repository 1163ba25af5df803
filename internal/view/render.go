package view

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/grafov/m3u8"
)

// WriteText renders the page for a terminal.
func WriteText(w io.Writer, p Page) error {
	var b strings.Builder

	if p.Notice != nil {
		fmt.Fprintf(&b, "[%s] %s\n\n", p.Notice.Kind, p.Notice.Text)
	}

	b.WriteString("Servers\n")
	writeServers(&b, p.Servers)

	b.WriteString("\nVideos\n")
	if len(p.Videos) == 0 {
		b.WriteString("  No videos available\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for _, v := range p.Videos {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.Date, v.Title, v.SizeHuman, v.URL)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	warned := false
	for _, s := range p.Sources {
		if s.Error == "" {
			continue
		}
		if !warned {
			b.WriteString("\n")
			warned = true
		}
		fmt.Fprintf(&b, "warning: %s unavailable: %s\n", s.Endpoint, s.Error)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteServers renders only the notice and the endpoint list. The active
// endpoint is marked with "*".
func WriteServers(w io.Writer, p Page) error {
	var b strings.Builder
	if p.Notice != nil {
		fmt.Fprintf(&b, "[%s] %s\n", p.Notice.Kind, p.Notice.Text)
	}
	writeServers(&b, p.Servers)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeServers(b *strings.Builder, servers []ServerView) {
	if len(servers) == 0 {
		b.WriteString("  No servers configured\n")
	}
	for _, s := range servers {
		marker := " "
		if s.Active {
			marker = "*"
		}
		fmt.Fprintf(b, "  %s %s\n", marker, s.Address)
	}
}

// WriteJSON renders the page as indented JSON.
func WriteJSON(w io.Writer, p Page) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>videohub</title>
</head>
<body>
{{- with .Notice}}
<div id="status" class="{{.Kind}}">{{.Text}}</div>
{{- end}}
<section>
<h2>Servers</h2>
<ul id="serversList">
{{- range .Servers}}
<li{{if .Active}} class="active"{{end}}><span>{{.Address}}</span></li>
{{- else}}
<li class="empty-message">No servers configured</li>
{{- end}}
</ul>
</section>
<section>
<h2>Videos</h2>
<div id="videoFeed">
{{- range .Videos}}
<div class="video-item" data-id="{{.ID}}">
<video controls preload="metadata">
<source src="{{.URL}}" type="{{.MimeType}}">
Your browser does not support video playback.
</video>
<div class="video-info">
<h4>{{.Title}}</h4>
<p>Uploaded on {{.Date}}</p>
</div>
</div>
{{- else}}
<div class="empty-message">No videos available</div>
{{- end}}
</div>
</section>
</body>
</html>
`))

// WriteHTML renders a standalone page with one player per video.
func WriteHTML(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}

// WriteM3U8 renders the feed as an extended M3U playlist, one entry per
// video, in feed order.
func WriteM3U8(w io.Writer, p Page) error {
	capacity := uint(len(p.Videos))
	if capacity == 0 {
		capacity = 1
	}
	pl, err := m3u8.NewMediaPlaylist(0, capacity)
	if err != nil {
		return err
	}
	for _, v := range p.Videos {
		title := strings.NewReplacer("\r", " ", "\n", " ").Replace(v.Title)
		if err := pl.Append(v.URL, 0, title); err != nil {
			return fmt.Errorf("add %s: %w", v.URL, err)
		}
	}
	pl.Close()
	_, err = pl.Encode().WriteTo(w)
	return err
}

// Formats lists the renderer names accepted by Render.
var Formats = []string{"text", "json", "html", "m3u8"}

// Render dispatches on format.
func Render(w io.Writer, format string, p Page) error {
	switch format {
	case "", "text":
		return WriteText(w, p)
	case "json":
		return WriteJSON(w, p)
	case "html":
		return WriteHTML(w, p)
	case "m3u8":
		return WriteM3U8(w, p)
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
