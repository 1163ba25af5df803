package server

import (
	"net/http"

	"videohub/internal/domain"
	"videohub/internal/metastore"
)

// handleList handles GET /videos.php: every record, newest first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	recs, err := s.cfg.Store.List(r.Context())
	if err != nil {
		s.log.Error("list_failed", map[string]any{"rid": RequestIDFromContext(r.Context())}, err)
		writeError(w, http.StatusInternalServerError, "error reading video metadata")
		return
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	metastore.SortNewestFirst(recs)
	writeJSON(w, http.StatusOK, recs)
}

// handleVideo serves the bytes behind a record's path, so that
// <endpoint>/<path> resolves against this server.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	s.cfg.Blobs.Serve(w, r, r.PathValue("name"))
}
