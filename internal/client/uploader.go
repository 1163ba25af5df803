package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"videohub/internal/domain"
	"videohub/internal/logging"
)

// File is the video handed to Upload.
type File struct {
	Name    string // original file name, extension included
	Content io.Reader
}

// UploadAck is the receiver's acknowledgement.
type UploadAck struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Video   domain.Record `json:"video"`
}

// Uploader sends videos to the active endpoint. It never retries.
type Uploader struct {
	Endpoints ActiveEndpoint
	Client    *http.Client
	Logger    *logging.Logger
}

// Upload streams f and title as a multipart form to <active>/upload.php.
func (u *Uploader) Upload(ctx context.Context, f File, title string) (*UploadAck, error) {
	endpoint, ok := u.Endpoints.Active()
	if !ok {
		return nil, domain.ErrNoEndpoint
	}
	target := endpointURL(endpoint, "upload.php")

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, f, title))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, pr)
	if err != nil {
		return nil, &domain.TransportError{Method: http.MethodPost, URL: target, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client().Do(req)
	if err != nil {
		return nil, &domain.TransportError{Method: http.MethodPost, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.TransportError{Method: http.MethodPost, URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			Method:     http.MethodPost,
			URL:        target,
			StatusCode: resp.StatusCode,
			Message:    serverMessage(body),
		}
	}

	var ack UploadAck
	if err := json.Unmarshal(body, &ack); err != nil {
		return nil, &domain.TransportError{
			Method:     http.MethodPost,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode acknowledgement: %w", err),
		}
	}

	u.Logger.Info("upload_sent", map[string]any{
		"endpoint": endpoint,
		"id":       ack.Video.ID,
		"path":     ack.Video.Path,
		"size":     ack.Video.Size,
	})
	return &ack, nil
}

func (u *Uploader) client() *http.Client {
	if u.Client != nil {
		return u.Client
	}
	return http.DefaultClient
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeUploadForm writes the "video" part followed by "title".
func writeUploadForm(mw *multipart.Writer, f File, title string) error {
	name := filepath.Base(f.Name)
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="video"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", ctype)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := mw.WriteField("title", title); err != nil {
		return err
	}
	return mw.Close()
}

// serverMessage extracts {"error": "..."} from a failure body.
func serverMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
