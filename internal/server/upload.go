package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"videohub/internal/domain"
)

// maxMemory is how much of a multipart form is held in memory before the
// file part spills to a temp file.
const maxMemory = 32 << 20

type uploadResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Video   domain.Record `json:"video"`
}

// handleUpload handles POST /upload.php with multipart fields "video" and
// "title". Checks run in a fixed order and stop at the first failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rec, err := s.receive(w, r)
	if err != nil {
		status := statusFor(err)
		fields := map[string]any{"rid": RequestIDFromContext(r.Context()), "status": status}
		if status >= http.StatusInternalServerError {
			s.log.Error("upload_failed", fields, err)
		} else {
			s.log.Info("upload_rejected", fields)
		}
		s.metrics.RecordUploadError(status)
		writeError(w, status, publicMessage(err))
		return
	}

	s.metrics.RecordUpload(rec.MimeType, rec.Size, time.Since(start))
	s.log.Info("upload_stored", map[string]any{
		"rid":  RequestIDFromContext(r.Context()),
		"id":   rec.ID,
		"path": rec.Path,
		"size": rec.Size,
		"mime": rec.MimeType,
	})
	writeJSON(w, http.StatusCreated, uploadResponse{
		Success: true,
		Message: "Video uploaded successfully",
		Video:   rec,
	})
}

func (s *Server) receive(w http.ResponseWriter, r *http.Request) (domain.Record, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		if isTransferError(err) {
			return domain.Record{}, transferFailed(err)
		}
		return domain.Record{}, domain.Rejectf(http.StatusBadRequest, "missing video file or title")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	titles := r.MultipartForm.Value["title"]
	files := r.MultipartForm.File["video"]
	if len(files) == 0 || len(titles) == 0 {
		return domain.Record{}, domain.Rejectf(http.StatusBadRequest, "missing video file or title")
	}

	title := strings.TrimSpace(titles[0])
	if title == "" {
		return domain.Record{}, domain.Rejectf(http.StatusBadRequest, "title must not be empty")
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return domain.Record{}, transferFailed(err)
	}
	defer f.Close()

	mimeType, ok, err := detectVideoType(f)
	if err != nil {
		return domain.Record{}, transferFailed(err)
	}
	if !ok {
		return domain.Record{}, domain.Rejectf(http.StatusBadRequest,
			"file type %s not allowed, use MP4, MPEG, MOV, AVI or WebM", mimeType)
	}

	if fh.Size > s.cfg.MaxUploadBytes {
		return domain.Record{}, domain.Rejectf(http.StatusBadRequest,
			"file too large, maximum size is %d MB", s.cfg.MaxUploadBytes>>20)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.Record{}, transferFailed(err)
	}

	id := uuid.NewString()
	filename := "video_" + id + storedExtension(fh.Filename)
	path, err := s.cfg.Blobs.Put(r.Context(), filename, f, fh.Size, mimeType)
	if err != nil {
		return domain.Record{}, asStorage("save video", err)
	}

	rec := domain.Record{
		ID:           id,
		Title:        title,
		Filename:     filename,
		Path:         path,
		Size:         fh.Size,
		MimeType:     mimeType,
		UploadedAt:   domain.NewTimestamp(s.cfg.Now()),
		OriginalName: fh.Filename,
	}
	if err := s.cfg.Store.Append(r.Context(), rec); err != nil {
		// The video stays on disk without a record; it is not listed.
		s.log.Warn("orphaned_video", map[string]any{"path": path})
		return domain.Record{}, asStorage("save metadata", err)
	}
	return rec, nil
}

// isTransferError reports a body that was cut off or exceeded the
// transport cap, as opposed to a request that simply lacks the fields.
func isTransferError(err error) bool {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

type transferError struct{ err error }

func (e *transferError) Error() string { return "file transfer failed: " + e.err.Error() }
func (e *transferError) Unwrap() error { return e.err }

func transferFailed(err error) error { return &transferError{err: err} }

func asStorage(op string, err error) error {
	var se *domain.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

// publicMessage is the text returned to the client; internal causes stay
// in the log.
func publicMessage(err error) string {
	var rej *domain.ServerValidationError
	if errors.As(err, &rej) {
		return rej.Message
	}
	var te *transferError
	if errors.As(err, &te) {
		return "error uploading the file"
	}
	if domain.IsStorage(err) {
		return "error saving the file"
	}
	return "internal error"
}
